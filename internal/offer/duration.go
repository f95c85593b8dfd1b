package offer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses the PT[nH][nM][nS] subset of ISO 8601 durations.
// Every group is optional; the PT prefix is not.
func ParseDuration(text string) (time.Duration, error) {
	m := isoDurationRe.FindStringSubmatch(text)
	if m == nil {
		return 0, &FormatError{Input: text}
	}
	units := [3]time.Duration{time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, u := range units {
		g := m[i+1]
		if g == "" {
			continue
		}
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil || n > math.MaxInt64/int64(u) {
			return 0, &FormatError{Input: text}
		}
		part := time.Duration(n) * u
		if d > math.MaxInt64-part {
			return 0, &FormatError{Input: text}
		}
		d += part
	}
	return d, nil
}

// FormatDuration renders d in the form ParseDuration accepts. Sub-second
// precision is dropped.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "PT0S"
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	var b strings.Builder
	b.WriteString("PT")
	if h > 0 {
		b.WriteString(strconv.FormatInt(int64(h), 10))
		b.WriteByte('H')
	}
	if m > 0 {
		b.WriteString(strconv.FormatInt(int64(m), 10))
		b.WriteByte('M')
	}
	if s > 0 {
		b.WriteString(strconv.FormatInt(int64(s), 10))
		b.WriteByte('S')
	}
	return b.String()
}

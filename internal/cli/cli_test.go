package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raton/internal/storage"
	logx "raton/pkg/logx"
)

const prefsYAML = `routes:
  - origin: JFK
    destination: LAX
date_range:
  earliest: "2025-03-15"
  latest: "2025-03-22"
max_price: "500"
currency: USD
passengers: 2
cabin_class: business
trip_type: one_way
`

type harness struct {
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("data_dir: %q\njournal:\n  driver: file\nlogging:\n  level: ERROR\n", dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return harness{dir: dir, cfgPath: cfgPath}
}

func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := New(Options{Out: &out, Err: &errOut, Getenv: func(string) string { return "" }})
	c.SetArgs(append([]string{"--config", h.cfgPath, "--env-file", ""}, args...))
	err := c.Execute()
	return out.String(), err
}

func TestPrefsLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out, err := h.run(t, "prefs", "list")
	require.NoError(t, err)
	assert.Equal(t, "No users with stored preferences.\n", out)

	file := filepath.Join(h.dir, "alice.yaml")
	require.NoError(t, os.WriteFile(file, []byte(prefsYAML), 0o600))

	out, err = h.run(t, "prefs", "set", "42", file)
	require.NoError(t, err)
	assert.Equal(t, "Saved preferences for chat 42\n", out)

	out, err = h.run(t, "prefs", "set", "42", file)
	require.NoError(t, err)
	assert.Equal(t, "Updated preferences for chat 42\n", out)

	out, err = h.run(t, "prefs", "list")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	out, err = h.run(t, "prefs", "show", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "origin: JFK")
	assert.Contains(t, out, "cabin_class: business")

	out, err = h.run(t, "prefs", "delete", "42")
	require.NoError(t, err)
	assert.Equal(t, "Deleted preferences for chat 42\n", out)

	_, err = h.run(t, "prefs", "show", "42")
	assert.Error(t, err)
}

func TestPrefsSetRejectsInvalidFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	file := filepath.Join(h.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte(strings.Replace(prefsYAML, `"500"`, `"cheap"`, 1)), 0o600))

	_, err := h.run(t, "prefs", "set", "42", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_price")

	_, err = h.run(t, "prefs", "show", "not-a-number")
	assert.ErrorContains(t, err, "invalid chat id")
}

func seedJournal(t *testing.T, h harness) {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(h.dir, "raton")}, logx.Nop())
	require.NoError(t, err)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, chat := range []int64{1, 2, 1} {
		require.NoError(t, st.AppendDeal(context.Background(), storage.DealRecord{
			At:            base.Add(time.Duration(i) * time.Hour),
			ChatID:        chat,
			OfferID:       fmt.Sprintf("offer-%d", i),
			Origin:        "JFK",
			Destination:   "LAX",
			DepartureDate: "2025-03-15",
			Total:         "250.00",
			Currency:      "USD",
			Airline:       "AA",
			Reasons:       []string{"Price $250.00 is within budget", "Direct flight"},
		}))
	}
	require.NoError(t, st.Close())
}

func TestDealsCSV(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedJournal(t, h)

	out, err := h.run(t, "deals", "--chat", "1", "--format", "csv")
	require.NoError(t, err)

	var rows []dealRow
	require.NoError(t, csvutil.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "offer-2", rows[0].OfferID)
	assert.Equal(t, "offer-0", rows[1].OfferID)
	assert.Equal(t, "Price $250.00 is within budget; Direct flight", rows[0].Reasons)
}

func TestDealsText(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedJournal(t, h)

	out, err := h.run(t, "deals", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "SENT"))
	assert.Contains(t, lines[1], "JFK-LAX")
	assert.Contains(t, lines[1], "250.00 USD")
}

func TestDealsFlagValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := h.run(t, "deals", "--format", "xml")
	assert.ErrorContains(t, err, "unknown --format")
	_, err = h.run(t, "deals", "--limit", "0")
	assert.ErrorContains(t, err, "--limit")
}

func TestDealsJournalDisabled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("data_dir: %q\n", dir)), 0o600))
	h := harness{dir: dir, cfgPath: cfgPath}

	_, err := h.run(t, "deals")
	assert.ErrorContains(t, err, "journal is disabled")
}

func TestCheckRequiresCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := h.run(t, "check")
	assert.ErrorContains(t, err, "missing required credentials")
}

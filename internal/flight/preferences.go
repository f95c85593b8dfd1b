package flight

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the persisted and wire form of civil dates.
const DateLayout = "2006-01-02"

const (
	MinPassengers = 1
	MaxPassengers = 9
)

type Route struct {
	Origin      string
	Destination string
}

func (r Route) String() string { return r.Origin + "->" + r.Destination }

func (r Route) Validate() error {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return errors.New("route origin and destination are required")
	}
	if r.Origin == r.Destination {
		return errors.New("origin and destination must be different")
	}
	return nil
}

// DateRange bounds acceptable travel dates. Both ends are civil dates
// represented as UTC midnight.
type DateRange struct {
	Earliest time.Time
	Latest   time.Time
}

func (d DateRange) Validate() error {
	if d.Earliest.IsZero() || d.Latest.IsZero() {
		return errors.New("date_range earliest and latest are required")
	}
	if d.Earliest.After(d.Latest) {
		return errors.New("earliest date must be before or equal to latest date")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Preferences is one user's search criteria. It is loaded fresh every
// cycle and replaced wholesale by its owner.
type Preferences struct {
	Routes         []Route
	DateRange      DateRange
	MaxPrice       decimal.Decimal
	Currency       string
	Passengers     int
	CabinClass     CabinClass
	StopPreference StopPreference
	TripType       TripType
	// MaxDuration is nil when the user set no limit.
	MaxDuration *time.Duration
}

// Validate reports the first violated invariant.
func (p Preferences) Validate() error {
	if len(p.Routes) == 0 {
		return errors.New("routes: at least one route is required")
	}
	for i, r := range p.Routes {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	if err := p.DateRange.Validate(); err != nil {
		return fmt.Errorf("date_range: %w", err)
	}
	if p.MaxPrice.IsNegative() {
		return errors.New("max_price must be >= 0")
	}
	if strings.TrimSpace(p.Currency) == "" {
		return errors.New("currency is required")
	}
	if p.Passengers < MinPassengers || p.Passengers > MaxPassengers {
		return fmt.Errorf("passengers must be between %d and %d", MinPassengers, MaxPassengers)
	}
	if !p.CabinClass.Valid() {
		return fmt.Errorf("invalid cabin_class %q", p.CabinClass)
	}
	if !p.StopPreference.Valid() {
		return fmt.Errorf("invalid stop_preference %q", p.StopPreference)
	}
	if !p.TripType.Valid() {
		return fmt.Errorf("invalid trip_type %q", p.TripType)
	}
	if p.MaxDuration != nil && *p.MaxDuration < 0 {
		return errors.New("max_duration must be >= 0")
	}
	return nil
}

// ReturnDate is the latest date for round trips and nil otherwise.
func (p Preferences) ReturnDate() *time.Time {
	if p.TripType != RoundTrip {
		return nil
	}
	d := p.DateRange.Latest
	return &d
}

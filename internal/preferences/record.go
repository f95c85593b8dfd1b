package preferences

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	yaml "go.yaml.in/yaml/v3"

	"raton/internal/flight"
	"raton/internal/offer"
)

// Record is the persisted document shape. Values stay textual so money
// and dates never pass through floats or time zones.
type Record struct {
	Routes         []RouteRecord   `yaml:"routes"`
	DateRange      DateRangeRecord `yaml:"date_range"`
	MaxPrice       string          `yaml:"max_price"`
	Currency       string          `yaml:"currency"`
	Passengers     *int            `yaml:"passengers,omitempty"`
	CabinClass     string          `yaml:"cabin_class,omitempty"`
	StopPreference string          `yaml:"stop_preference,omitempty"`
	TripType       string          `yaml:"trip_type,omitempty"`
	MaxDuration    string          `yaml:"max_duration,omitempty"`
}

type RouteRecord struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
}

type DateRangeRecord struct {
	Earliest string `yaml:"earliest"`
	Latest   string `yaml:"latest"`
}

// FromPreferences converts a validated model into its document form.
func FromPreferences(p flight.Preferences) Record {
	n := p.Passengers
	r := Record{
		Routes: make([]RouteRecord, 0, len(p.Routes)),
		DateRange: DateRangeRecord{
			Earliest: p.DateRange.Earliest.Format(flight.DateLayout),
			Latest:   p.DateRange.Latest.Format(flight.DateLayout),
		},
		MaxPrice:       p.MaxPrice.String(),
		Currency:       p.Currency,
		Passengers:     &n,
		CabinClass:     string(p.CabinClass),
		StopPreference: string(p.StopPreference),
		TripType:       string(p.TripType),
	}
	for _, rt := range p.Routes {
		r.Routes = append(r.Routes, RouteRecord{Origin: rt.Origin, Destination: rt.Destination})
	}
	if p.MaxDuration != nil {
		r.MaxDuration = offer.FormatDuration(*p.MaxDuration)
	}
	return r
}

// Preferences converts the document into a validated model. Missing
// optional keys take their defaults.
func (r Record) Preferences() (flight.Preferences, error) {
	var p flight.Preferences
	for _, rt := range r.Routes {
		p.Routes = append(p.Routes, flight.Route{
			Origin:      strings.TrimSpace(rt.Origin),
			Destination: strings.TrimSpace(rt.Destination),
		})
	}

	var err error
	if p.DateRange.Earliest, err = flight.ParseDate(r.DateRange.Earliest); err != nil {
		return flight.Preferences{}, fmt.Errorf("date_range.earliest: %w", err)
	}
	if p.DateRange.Latest, err = flight.ParseDate(r.DateRange.Latest); err != nil {
		return flight.Preferences{}, fmt.Errorf("date_range.latest: %w", err)
	}
	if strings.TrimSpace(r.MaxPrice) == "" {
		return flight.Preferences{}, errors.New("max_price is required")
	}
	if p.MaxPrice, err = decimal.NewFromString(strings.TrimSpace(r.MaxPrice)); err != nil {
		return flight.Preferences{}, fmt.Errorf("max_price: %w", err)
	}
	p.Currency = strings.TrimSpace(r.Currency)

	p.Passengers = 1
	if r.Passengers != nil {
		p.Passengers = *r.Passengers
	}
	if p.CabinClass, err = flight.ParseCabinClass(r.CabinClass); err != nil {
		return flight.Preferences{}, err
	}
	if p.StopPreference, err = flight.ParseStopPreference(r.StopPreference); err != nil {
		return flight.Preferences{}, err
	}
	if p.TripType, err = flight.ParseTripType(r.TripType); err != nil {
		return flight.Preferences{}, err
	}
	if s := strings.TrimSpace(r.MaxDuration); s != "" {
		d, err := parseMaxDuration(s)
		if err != nil {
			return flight.Preferences{}, fmt.Errorf("max_duration: %w", err)
		}
		p.MaxDuration = &d
	}

	if err := p.Validate(); err != nil {
		return flight.Preferences{}, err
	}
	return p, nil
}

// parseMaxDuration accepts the ISO form written by FromPreferences and,
// for hand-edited files, Go duration strings like "12h30m".
func parseMaxDuration(s string) (time.Duration, error) {
	if strings.HasPrefix(s, "PT") {
		return offer.ParseDuration(s)
	}
	return time.ParseDuration(s)
}

// Encode renders p as a YAML document.
func Encode(p flight.Preferences) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromPreferences(p)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses one YAML document. Unknown keys are rejected.
func Decode(b []byte) (flight.Preferences, error) {
	var r Record
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return flight.Preferences{}, errors.New("empty document")
		}
		return flight.Preferences{}, fmt.Errorf("yaml: %w", err)
	}
	return r.Preferences()
}

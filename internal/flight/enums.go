package flight

import (
	"fmt"
	"strings"
)

// CabinClass is the requested travel class.
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// ParseCabinClass accepts the lower-case persisted form. Empty input
// yields the default (economy).
func ParseCabinClass(s string) (CabinClass, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CabinEconomy, nil
	}
	c := CabinClass(strings.ToLower(s))
	if !c.Valid() {
		return "", fmt.Errorf("invalid cabin_class %q", s)
	}
	return c, nil
}

// StopPreference controls how many connections an offer may have.
type StopPreference string

const (
	StopsAny        StopPreference = "any"
	StopsDirectOnly StopPreference = "direct_only"
	StopsMaxOne     StopPreference = "max_one_stop"
)

func (p StopPreference) Valid() bool {
	switch p {
	case StopsAny, StopsDirectOnly, StopsMaxOne:
		return true
	}
	return false
}

// ParseStopPreference accepts the lower-case persisted form. Empty input
// yields the default (any).
func ParseStopPreference(s string) (StopPreference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StopsAny, nil
	}
	p := StopPreference(strings.ToLower(s))
	if !p.Valid() {
		return "", fmt.Errorf("invalid stop_preference %q", s)
	}
	return p, nil
}

// TripType selects one-way or round-trip searches.
type TripType string

const (
	OneWay    TripType = "one_way"
	RoundTrip TripType = "round_trip"
)

func (t TripType) Valid() bool { return t == OneWay || t == RoundTrip }

// ParseTripType accepts the lower-case persisted form. Empty input yields
// the default (round_trip).
func ParseTripType(s string) (TripType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoundTrip, nil
	}
	t := TripType(strings.ToLower(s))
	if !t.Valid() {
		return "", fmt.Errorf("invalid trip_type %q", s)
	}
	return t, nil
}

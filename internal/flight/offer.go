package flight

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment is a single non-stop leg. Empty terminal/aircraft strings mean
// the value was not provided.
type Segment struct {
	DepartureAirport  string
	DepartureTime     time.Time
	DepartureTerminal string
	ArrivalAirport    string
	ArrivalTime       time.Time
	ArrivalTerminal   string
	Airline           string
	FlightNumber      string
	Aircraft          string
	Duration          time.Duration
}

// Itinerary is one direction of travel.
type Itinerary struct {
	Segments []Segment
}

// Stops is the number of connections (segments - 1).
func (it Itinerary) Stops() int {
	if len(it.Segments) == 0 {
		return 0
	}
	return len(it.Segments) - 1
}

func (it Itinerary) TotalDuration() time.Duration {
	var d time.Duration
	for _, s := range it.Segments {
		d += s.Duration
	}
	return d
}

// Price holds exact decimal amounts. Fees is the sum of all fee lines.
type Price struct {
	Total    decimal.Decimal
	Base     decimal.Decimal
	Fees     decimal.Decimal
	Currency string
}

// Offer is a normalized, bookable combination of itineraries.
// One itinerary means one-way, two mean round-trip.
type Offer struct {
	ID                string
	Itineraries       []Itinerary
	Price             Price
	ValidatingAirline string
}

func (o Offer) IsRoundTrip() bool { return len(o.Itineraries) > 1 }

// TotalDuration sums all itineraries (outbound + return for round trips).
func (o Offer) TotalDuration() time.Duration {
	var d time.Duration
	for _, it := range o.Itineraries {
		d += it.TotalDuration()
	}
	return d
}

func (o Offer) TotalStops() int {
	n := 0
	for _, it := range o.Itineraries {
		n += it.Stops()
	}
	return n
}

// Package search defines the flight-search request and the error contract
// shared by search providers.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"raton/internal/flight"
)

// DefaultMaxResults caps offers per search when a request leaves it unset.
const DefaultMaxResults = 10

// Request is one route query. ReturnDate is nil for one-way searches.
type Request struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
	CabinClass    flight.CabinClass
	NonStop       bool
	MaxResults    int
}

// ForRoute builds the request the check cycle issues for one route.
func ForRoute(r flight.Route, p flight.Preferences) Request {
	return Request{
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureDate: p.DateRange.Earliest,
		ReturnDate:    p.ReturnDate(),
		Adults:        p.Passengers,
		CabinClass:    p.CabinClass,
	}
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return errors.New("origin and destination are required")
	}
	if r.DepartureDate.IsZero() {
		return errors.New("departure date is required")
	}
	if r.ReturnDate != nil && r.ReturnDate.Before(r.DepartureDate) {
		return errors.New("return date precedes departure date")
	}
	if r.Adults < flight.MinPassengers || r.Adults > flight.MaxPassengers {
		return fmt.Errorf("adults must be between %d and %d", flight.MinPassengers, flight.MaxPassengers)
	}
	return nil
}

func (r Request) String() string {
	s := r.Origin + "->" + r.Destination + " " + r.DepartureDate.Format(flight.DateLayout)
	if r.ReturnDate != nil {
		s += "/" + r.ReturnDate.Format(flight.DateLayout)
	}
	return s
}

package storage

import (
	"errors"
	"time"

	"raton/internal/flight"
	"raton/internal/rules"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the journal.
//
// Driver values:
//   - "file": JSON Lines file derived from Path
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DealRecord is one delivered deal alert. Keep it compact and
// schema-stable; amounts stay decimal strings.
type DealRecord struct {
	At            time.Time `json:"at"`
	ChatID        int64     `json:"chat_id"`
	OfferID       string    `json:"offer_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date,omitempty"`
	Total         string    `json:"total"`
	Currency      string    `json:"currency"`
	Stops         int       `json:"stops"`
	Airline       string    `json:"airline,omitempty"`
	Reasons       []string  `json:"reasons,omitempty"`
}

// NewDealRecord summarizes a delivered offer. Route and dates come from
// the outbound itinerary and, for round trips, the return itinerary.
func NewDealRecord(at time.Time, chatID int64, o flight.Offer, m rules.MatchResult) DealRecord {
	r := DealRecord{
		At:       at.UTC(),
		ChatID:   chatID,
		OfferID:  o.ID,
		Total:    o.Price.Total.String(),
		Currency: o.Price.Currency,
		Stops:    o.TotalStops(),
		Airline:  o.ValidatingAirline,
		Reasons:  m.Passed(),
	}
	if len(o.Itineraries) > 0 && len(o.Itineraries[0].Segments) > 0 {
		segs := o.Itineraries[0].Segments
		r.Origin = segs[0].DepartureAirport
		r.Destination = segs[len(segs)-1].ArrivalAirport
		r.DepartureDate = segs[0].DepartureTime.Format(flight.DateLayout)
	}
	if o.IsRoundTrip() && len(o.Itineraries[1].Segments) > 0 {
		r.ReturnDate = o.Itineraries[1].Segments[0].DepartureTime.Format(flight.DateLayout)
	}
	return r
}

package offer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"raton/internal/flight"
)

// Raw is one undecoded flight-offer object as returned by the search API.
type Raw = json.RawMessage

var errMissing = errors.New("required field missing")

// localTimeLayout is the offset-less form the search API uses for "at".
const localTimeLayout = "2006-01-02T15:04:05"

// amount accepts both quoted and bare JSON numbers without going through
// float64.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	*a = amount(b)
	return nil
}

type wireEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type wireAircraft struct {
	Code string `json:"code"`
}

type wireSegment struct {
	Departure   *wireEndpoint `json:"departure"`
	Arrival     *wireEndpoint `json:"arrival"`
	CarrierCode string        `json:"carrierCode"`
	Number      string        `json:"number"`
	Aircraft    *wireAircraft `json:"aircraft,omitempty"`
	Duration    string        `json:"duration"`
}

type wireItinerary struct {
	Duration string        `json:"duration,omitempty"`
	Segments []wireSegment `json:"segments"`
}

type wireFee struct {
	Amount amount `json:"amount"`
	Type   string `json:"type,omitempty"`
}

type wirePrice struct {
	Currency string    `json:"currency"`
	Total    amount    `json:"total"`
	Base     amount    `json:"base"`
	Fees     []wireFee `json:"fees"`
}

type wireOffer struct {
	ID                     string          `json:"id"`
	Itineraries            []wireItinerary `json:"itineraries"`
	Price                  *wirePrice      `json:"price"`
	ValidatingAirlineCodes []string        `json:"validatingAirlineCodes"`
}

// Map normalizes one raw offer. It is deterministic and has no side
// effects; any malformed or missing required field yields a *MappingError.
func Map(raw Raw) (flight.Offer, error) {
	var w wireOffer
	if err := json.Unmarshal(raw, &w); err != nil {
		return flight.Offer{}, &MappingError{Err: fmt.Errorf("decode: %w", err)}
	}
	fail := func(field string, err error) (flight.Offer, error) {
		return flight.Offer{}, &MappingError{OfferID: w.ID, Field: field, Err: err}
	}

	if w.ID == "" {
		return fail("id", errMissing)
	}
	if len(w.Itineraries) == 0 {
		return fail("itineraries", errMissing)
	}

	its := make([]flight.Itinerary, 0, len(w.Itineraries))
	for i, wi := range w.Itineraries {
		if len(wi.Segments) == 0 {
			return fail(fmt.Sprintf("itineraries[%d].segments", i), errMissing)
		}
		segs := make([]flight.Segment, 0, len(wi.Segments))
		for j, ws := range wi.Segments {
			path := fmt.Sprintf("itineraries[%d].segments[%d]", i, j)
			s, field, err := mapSegment(ws)
			if err != nil {
				return fail(path+"."+field, err)
			}
			segs = append(segs, s)
		}
		its = append(its, flight.Itinerary{Segments: segs})
	}

	if w.Price == nil {
		return fail("price", errMissing)
	}
	price, field, err := mapPrice(*w.Price)
	if err != nil {
		return fail("price."+field, err)
	}

	if len(w.ValidatingAirlineCodes) == 0 || w.ValidatingAirlineCodes[0] == "" {
		return fail("validatingAirlineCodes", errMissing)
	}

	return flight.Offer{
		ID:          w.ID,
		Itineraries: its,
		Price:       price,
		// First code only; additional validating carriers are dropped.
		ValidatingAirline: w.ValidatingAirlineCodes[0],
	}, nil
}

func mapSegment(ws wireSegment) (flight.Segment, string, error) {
	if ws.Departure == nil {
		return flight.Segment{}, "departure", errMissing
	}
	if ws.Arrival == nil {
		return flight.Segment{}, "arrival", errMissing
	}
	if ws.Departure.IATACode == "" {
		return flight.Segment{}, "departure.iataCode", errMissing
	}
	if ws.Arrival.IATACode == "" {
		return flight.Segment{}, "arrival.iataCode", errMissing
	}
	dep, err := parseTimestamp(ws.Departure.At)
	if err != nil {
		return flight.Segment{}, "departure.at", err
	}
	arr, err := parseTimestamp(ws.Arrival.At)
	if err != nil {
		return flight.Segment{}, "arrival.at", err
	}
	if ws.CarrierCode == "" {
		return flight.Segment{}, "carrierCode", errMissing
	}
	if ws.Number == "" {
		return flight.Segment{}, "number", errMissing
	}
	if ws.Duration == "" {
		return flight.Segment{}, "duration", errMissing
	}
	d, err := ParseDuration(ws.Duration)
	if err != nil {
		return flight.Segment{}, "duration", err
	}

	s := flight.Segment{
		DepartureAirport:  ws.Departure.IATACode,
		DepartureTime:     dep,
		DepartureTerminal: ws.Departure.Terminal,
		ArrivalAirport:    ws.Arrival.IATACode,
		ArrivalTime:       arr,
		ArrivalTerminal:   ws.Arrival.Terminal,
		Airline:           ws.CarrierCode,
		FlightNumber:      ws.Number,
		Duration:          d,
	}
	if ws.Aircraft != nil {
		s.Aircraft = ws.Aircraft.Code
	}
	return s, "", nil
}

func mapPrice(wp wirePrice) (flight.Price, string, error) {
	if strings.TrimSpace(wp.Currency) == "" {
		return flight.Price{}, "currency", errMissing
	}
	total, err := parseAmount(wp.Total)
	if err != nil {
		return flight.Price{}, "total", err
	}
	base, err := parseAmount(wp.Base)
	if err != nil {
		return flight.Price{}, "base", err
	}
	fees := decimal.Zero
	for i, f := range wp.Fees {
		v, err := parseAmount(f.Amount)
		if err != nil {
			return flight.Price{}, fmt.Sprintf("fees[%d].amount", i), err
		}
		fees = fees.Add(v)
	}
	return flight.Price{Total: total, Base: base, Fees: fees, Currency: wp.Currency}, "", nil
}

func parseAmount(a amount) (decimal.Decimal, error) {
	if a == "" {
		return decimal.Decimal{}, errMissing
	}
	return decimal.NewFromString(string(a))
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errMissing
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(localTimeLayout, s)
}

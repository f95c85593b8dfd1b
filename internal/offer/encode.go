package offer

import (
	"encoding/json"

	"raton/internal/flight"
)

// Encode renders o in the search API wire shape. Map(Encode(o)) yields an
// offer equal to o except that per-line fees collapse into one line.
func Encode(o flight.Offer) (Raw, error) {
	w := wireOffer{
		ID:          o.ID,
		Itineraries: make([]wireItinerary, 0, len(o.Itineraries)),
		Price: &wirePrice{
			Currency: o.Price.Currency,
			Total:    amount(o.Price.Total.String()),
			Base:     amount(o.Price.Base.String()),
		},
	}
	if !o.Price.Fees.IsZero() {
		w.Price.Fees = []wireFee{{Amount: amount(o.Price.Fees.String())}}
	}
	if o.ValidatingAirline != "" {
		w.ValidatingAirlineCodes = []string{o.ValidatingAirline}
	}
	for _, it := range o.Itineraries {
		wi := wireItinerary{
			Duration: FormatDuration(it.TotalDuration()),
			Segments: make([]wireSegment, 0, len(it.Segments)),
		}
		for _, s := range it.Segments {
			ws := wireSegment{
				Departure:   &wireEndpoint{IATACode: s.DepartureAirport, Terminal: s.DepartureTerminal, At: s.DepartureTime.Format(localTimeLayout + "Z07:00")},
				Arrival:     &wireEndpoint{IATACode: s.ArrivalAirport, Terminal: s.ArrivalTerminal, At: s.ArrivalTime.Format(localTimeLayout + "Z07:00")},
				CarrierCode: s.Airline,
				Number:      s.FlightNumber,
				Duration:    FormatDuration(s.Duration),
			}
			if s.Aircraft != "" {
				ws.Aircraft = &wireAircraft{Code: s.Aircraft}
			}
			wi.Segments = append(wi.Segments, ws)
		}
		w.Itineraries = append(w.Itineraries, wi)
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return Raw(b), nil
}

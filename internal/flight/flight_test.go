package flight

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func seg(d time.Duration) Segment { return Segment{Duration: d} }

func TestOfferDerivedValues(t *testing.T) {
	t.Parallel()
	o := Offer{
		Itineraries: []Itinerary{
			{Segments: []Segment{seg(2 * time.Hour), seg(3 * time.Hour)}},
			{Segments: []Segment{seg(4 * time.Hour)}},
		},
	}
	if !o.IsRoundTrip() {
		t.Fatal("expected round trip")
	}
	if got := o.TotalStops(); got != 1 {
		t.Fatalf("TotalStops = %d, want 1", got)
	}
	if got := o.TotalDuration(); got != 9*time.Hour {
		t.Fatalf("TotalDuration = %v, want 9h", got)
	}

	one := Offer{Itineraries: []Itinerary{{Segments: []Segment{seg(time.Hour)}}}}
	if one.IsRoundTrip() {
		t.Fatal("single itinerary must not be a round trip")
	}
	if one.TotalStops() != 0 {
		t.Fatalf("TotalStops = %d, want 0", one.TotalStops())
	}
}

func validPrefs() Preferences {
	return Preferences{
		Routes:         []Route{{Origin: "JFK", Destination: "LAX"}},
		DateRange:      DateRange{Earliest: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), Latest: time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)},
		MaxPrice:       decimal.RequireFromString("500"),
		Currency:       "USD",
		Passengers:     1,
		CabinClass:     CabinEconomy,
		StopPreference: StopsAny,
		TripType:       RoundTrip,
	}
}

func TestPreferencesValidate(t *testing.T) {
	t.Parallel()
	neg := -time.Hour
	tests := []struct {
		name    string
		mutate  func(p *Preferences)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Preferences) {}},
		{name: "no routes", mutate: func(p *Preferences) { p.Routes = nil }, wantErr: true},
		{name: "same origin and destination", mutate: func(p *Preferences) { p.Routes[0].Destination = "JFK" }, wantErr: true},
		{name: "inverted dates", mutate: func(p *Preferences) { p.DateRange.Earliest, p.DateRange.Latest = p.DateRange.Latest, p.DateRange.Earliest }, wantErr: true},
		{name: "same day range", mutate: func(p *Preferences) { p.DateRange.Latest = p.DateRange.Earliest }},
		{name: "zero passengers", mutate: func(p *Preferences) { p.Passengers = 0 }, wantErr: true},
		{name: "ten passengers", mutate: func(p *Preferences) { p.Passengers = 10 }, wantErr: true},
		{name: "nine passengers", mutate: func(p *Preferences) { p.Passengers = 9 }},
		{name: "negative price", mutate: func(p *Preferences) { p.MaxPrice = decimal.RequireFromString("-1") }, wantErr: true},
		{name: "missing currency", mutate: func(p *Preferences) { p.Currency = " " }, wantErr: true},
		{name: "bad cabin", mutate: func(p *Preferences) { p.CabinClass = "steerage" }, wantErr: true},
		{name: "bad stops", mutate: func(p *Preferences) { p.StopPreference = "two" }, wantErr: true},
		{name: "bad trip", mutate: func(p *Preferences) { p.TripType = "multi_city" }, wantErr: true},
		{name: "negative duration", mutate: func(p *Preferences) { p.MaxDuration = &neg }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validPrefs()
			p.Routes = append([]Route(nil), p.Routes...)
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReturnDate(t *testing.T) {
	t.Parallel()
	p := validPrefs()
	rd := p.ReturnDate()
	if rd == nil || !rd.Equal(p.DateRange.Latest) {
		t.Fatalf("ReturnDate = %v, want %v", rd, p.DateRange.Latest)
	}
	p.TripType = OneWay
	if p.ReturnDate() != nil {
		t.Fatal("one-way trips must not carry a return date")
	}
}

func TestParseEnums(t *testing.T) {
	t.Parallel()
	if c, err := ParseCabinClass(""); err != nil || c != CabinEconomy {
		t.Fatalf("ParseCabinClass(\"\") = %q, %v", c, err)
	}
	if c, err := ParseCabinClass("BUSINESS"); err != nil || c != CabinBusiness {
		t.Fatalf("ParseCabinClass(BUSINESS) = %q, %v", c, err)
	}
	if _, err := ParseCabinClass("cargo"); err == nil {
		t.Fatal("expected error for unknown cabin")
	}
	if s, err := ParseStopPreference("direct_only"); err != nil || s != StopsDirectOnly {
		t.Fatalf("ParseStopPreference = %q, %v", s, err)
	}
	if tt, err := ParseTripType(""); err != nil || tt != RoundTrip {
		t.Fatalf("ParseTripType(\"\") = %q, %v", tt, err)
	}
	if _, err := ParseTripType("both"); err == nil {
		t.Fatal("expected error for unknown trip type")
	}
}

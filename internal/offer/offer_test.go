package offer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleRoundTrip = `{
  "type": "flight-offer",
  "id": "42",
  "itineraries": [
    {"duration": "PT8H10M", "segments": [
      {"departure": {"iataCode": "JFK", "terminal": "8", "at": "2026-03-15T10:30:00"},
       "arrival": {"iataCode": "ORD", "at": "2026-03-15T12:00:00"},
       "carrierCode": "AA", "number": "100", "aircraft": {"code": "321"}, "duration": "PT2H30M"},
      {"departure": {"iataCode": "ORD", "at": "2026-03-15T14:00:00"},
       "arrival": {"iataCode": "LAX", "terminal": "4", "at": "2026-03-15T16:40:00"},
       "carrierCode": "AA", "number": "200", "duration": "PT4H40M"}
    ]},
    {"duration": "PT5H30M", "segments": [
      {"departure": {"iataCode": "LAX", "at": "2026-03-22T08:00:00-07:00"},
       "arrival": {"iataCode": "JFK", "at": "2026-03-22T16:30:00-04:00"},
       "carrierCode": "DL", "number": "7", "duration": "PT5H30M"}
    ]}
  ],
  "price": {"currency": "USD", "total": "299.99", "base": "250.00",
            "fees": [{"amount": "10.10", "type": "SUPPLIER"}, {"amount": "0.20", "type": "TICKETING"}]},
  "validatingAirlineCodes": ["AA", "DL"]
}`

func TestParseDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT2H30M", want: 2*time.Hour + 30*time.Minute},
		{in: "PT5H", want: 5 * time.Hour},
		{in: "PT45M", want: 45 * time.Minute},
		{in: "PT1H15M30S", want: time.Hour + 15*time.Minute + 30*time.Second},
		{in: "PT30S", want: 30 * time.Second},
		{in: "PT", want: 0},
		{in: "PT26H", want: 26 * time.Hour},
		{in: "2H30M", wantErr: true},
		{in: "P1DT2H", wantErr: true},
		{in: "PT1.5H", wantErr: true},
		{in: "PTxH", wantErr: true},
		{in: "", wantErr: true},
		{in: "pt2h", wantErr: true},
		{in: "PT3000000H", wantErr: true},
		{in: "PT9223372036854775807S", wantErr: true},
		{in: "PT2562047H47M17S", wantErr: true},
		{in: "PT2562047H", want: 2562047 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("ParseDuration(%q) err = %v, want *FormatError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) unexpected err: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := ParseDuration("5 hours")
	want := "Invalid ISO 8601 duration format: 5 hours. Expected format: PT[hours]H[minutes]M[seconds]S"
	if err == nil || err.Error() != want {
		t.Fatalf("err = %v, want %q", err, want)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "PT0S"},
		{12*time.Hour + 30*time.Minute, "PT12H30M"},
		{90 * time.Second, "PT1M30S"},
		{30 * time.Hour, "PT30H"},
	}
	for _, tt := range tests {
		got := FormatDuration(tt.in)
		if got != tt.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
		back, err := ParseDuration(got)
		if err != nil || back != tt.in {
			t.Fatalf("ParseDuration(%q) = %v, %v; want %v", got, back, err, tt.in)
		}
	}
}

func TestMapRoundTripOffer(t *testing.T) {
	t.Parallel()
	o, err := Map(Raw(sampleRoundTrip))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if o.ID != "42" {
		t.Fatalf("ID = %q, want 42", o.ID)
	}
	if !o.IsRoundTrip() {
		t.Fatal("expected round trip")
	}
	if got := o.TotalStops(); got != 1 {
		t.Fatalf("TotalStops = %d, want 1", got)
	}
	if got := o.TotalDuration(); got != 12*time.Hour+40*time.Minute {
		t.Fatalf("TotalDuration = %v", got)
	}
	if !o.Price.Total.Equal(decimal.RequireFromString("299.99")) {
		t.Fatalf("Total = %s", o.Price.Total)
	}
	if !o.Price.Fees.Equal(decimal.RequireFromString("10.30")) {
		t.Fatalf("Fees = %s, want 10.30", o.Price.Fees)
	}
	if o.ValidatingAirline != "AA" {
		t.Fatalf("ValidatingAirline = %q, want first code AA", o.ValidatingAirline)
	}

	first := o.Itineraries[0].Segments[0]
	if first.DepartureTerminal != "8" || first.ArrivalTerminal != "" {
		t.Fatalf("terminals = %q/%q", first.DepartureTerminal, first.ArrivalTerminal)
	}
	if first.Aircraft != "321" || o.Itineraries[0].Segments[1].Aircraft != "" {
		t.Fatal("aircraft code not mapped as optional")
	}
	if !first.DepartureTime.Equal(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("DepartureTime = %v", first.DepartureTime)
	}
	ret := o.Itineraries[1].Segments[0]
	if _, off := ret.DepartureTime.Zone(); off != -7*3600 {
		t.Fatalf("offset = %d, want -7h", off)
	}
}

func TestMapPreservedAcrossReserialization(t *testing.T) {
	t.Parallel()
	first, err := Map(Raw(sampleRoundTrip))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(sampleRoundTrip), &generic); err != nil {
		t.Fatal(err)
	}
	again, err := json.Marshal(generic)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Map(Raw(again))
	if err != nil {
		t.Fatalf("Map(reserialized): %v", err)
	}

	encoded, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	third, err := Map(encoded)
	if err != nil {
		t.Fatalf("Map(Encode): %v", err)
	}

	for _, got := range []struct {
		name    string
		total   decimal.Decimal
		stops   int
		round   bool
		dur     time.Duration
		fees    decimal.Decimal
		airline string
	}{
		{"reserialized", second.Price.Total, second.TotalStops(), second.IsRoundTrip(), second.TotalDuration(), second.Price.Fees, second.ValidatingAirline},
		{"encoded", third.Price.Total, third.TotalStops(), third.IsRoundTrip(), third.TotalDuration(), third.Price.Fees, third.ValidatingAirline},
	} {
		if !got.total.Equal(first.Price.Total) {
			t.Fatalf("%s: total = %s, want %s", got.name, got.total, first.Price.Total)
		}
		if got.stops != first.TotalStops() {
			t.Fatalf("%s: stops = %d, want %d", got.name, got.stops, first.TotalStops())
		}
		if got.round != first.IsRoundTrip() {
			t.Fatalf("%s: round trip = %v", got.name, got.round)
		}
		if got.dur != first.TotalDuration() {
			t.Fatalf("%s: duration = %v", got.name, got.dur)
		}
		if !got.fees.Equal(first.Price.Fees) {
			t.Fatalf("%s: fees = %s", got.name, got.fees)
		}
		if got.airline != first.ValidatingAirline {
			t.Fatalf("%s: airline = %s", got.name, got.airline)
		}
	}
}

func TestMapNumericAmountsAndNoFees(t *testing.T) {
	t.Parallel()
	raw := strings.Replace(sampleRoundTrip, `"total": "299.99"`, `"total": 299.99`, 1)
	raw = strings.Replace(raw, `"fees": [{"amount": "10.10", "type": "SUPPLIER"}, {"amount": "0.20", "type": "TICKETING"}]`, `"fees": []`, 1)
	o, err := Map(Raw(raw))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if o.Price.Total.String() != "299.99" {
		t.Fatalf("Total = %s", o.Price.Total)
	}
	if !o.Price.Fees.IsZero() {
		t.Fatalf("Fees = %s, want 0", o.Price.Fees)
	}
}

func TestMapErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		old, new  string
		wantField string
		wantID    string
	}{
		{name: "missing id", old: `"id": "42",`, new: ``, wantField: "id"},
		{name: "bad duration", old: `"duration": "PT2H30M"`, new: `"duration": "2h30m"`, wantField: "itineraries[0].segments[0].duration", wantID: "42"},
		{name: "missing carrier", old: `"carrierCode": "DL", `, new: ``, wantField: "itineraries[1].segments[0].carrierCode", wantID: "42"},
		{name: "bad timestamp", old: `"at": "2026-03-15T10:30:00"`, new: `"at": "March 15"`, wantField: "itineraries[0].segments[0].departure.at", wantID: "42"},
		{name: "bad total", old: `"total": "299.99"`, new: `"total": "lots"`, wantField: "price.total", wantID: "42"},
		{name: "bad fee", old: `"amount": "0.20"`, new: `"amount": "x"`, wantField: "price.fees[1].amount", wantID: "42"},
		{name: "no validating airline", old: `["AA", "DL"]`, new: `[]`, wantField: "validatingAirlineCodes", wantID: "42"},
		{name: "missing price", old: `"price": {"currency": "USD", "total": "299.99", "base": "250.00",`, new: `"nope": {"currency": "USD", "total": "299.99", "base": "250.00",`, wantField: "price", wantID: "42"},
		{name: "malformed json", old: `"id": "42",`, new: `"id": 42 42,`, wantField: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := strings.Replace(sampleRoundTrip, tt.old, tt.new, 1)
			if raw == sampleRoundTrip {
				t.Fatalf("fixture replacement %q did not apply", tt.old)
			}
			_, err := Map(Raw(raw))
			var me *MappingError
			if !errors.As(err, &me) {
				t.Fatalf("err = %v, want *MappingError", err)
			}
			if me.Field != tt.wantField {
				t.Fatalf("Field = %q, want %q", me.Field, tt.wantField)
			}
			if me.OfferID != tt.wantID {
				t.Fatalf("OfferID = %q, want %q", me.OfferID, tt.wantID)
			}
		})
	}
}

func TestMapDurationErrorUnwrapsFormatError(t *testing.T) {
	t.Parallel()
	raw := strings.Replace(sampleRoundTrip, `"duration": "PT4H40M"`, `"duration": "4:40"`, 1)
	_, err := Map(Raw(raw))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want wrapped *FormatError", err)
	}
	if fe.Input != "4:40" {
		t.Fatalf("Input = %q", fe.Input)
	}
}

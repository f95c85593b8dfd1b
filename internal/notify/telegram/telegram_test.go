package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"

	"raton/internal/flight"
	"raton/internal/notify"
	"raton/internal/rules"
	kit "raton/internal/transport"
	"raton/internal/transport/telegram/adapter"
	logx "raton/pkg/logx"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func leg(from, to, dep, arr string, d time.Duration) flight.Segment {
	return flight.Segment{
		DepartureAirport: from,
		DepartureTime:    at(dep),
		ArrivalAirport:   to,
		ArrivalTime:      at(arr),
		Airline:          "AA",
		FlightNumber:     "100",
		Duration:         d,
	}
}

func roundTrip() flight.Offer {
	return flight.Offer{
		ID: "1",
		Itineraries: []flight.Itinerary{
			{Segments: []flight.Segment{leg("JFK", "LAX", "2025-03-15T08:00", "2025-03-15T11:30", 5*time.Hour+30*time.Minute)}},
			{Segments: []flight.Segment{leg("LAX", "JFK", "2025-03-22T14:00", "2025-03-22T22:15", 5*time.Hour+15*time.Minute)}},
		},
		Price: flight.Price{Total: decimal.RequireFromString("299.99"), Currency: "USD"},
	}
}

func TestFormatDealRoundTrip(t *testing.T) {
	t.Parallel()
	m := rules.NewMatchResult([]string{"Price 299.99 <= 500", "Direct flight"}, nil)
	want := strings.Join([]string{
		"✈️ *Great Deal Found\\!*",
		"",
		"*Route:* JFK → LAX",
		"*Type:* Round\\-trip",
		"*Price:* $299\\.99 USD",
		"",
		"🛫 *Outbound*",
		"• Departs: Mar 15, 08:00 AM \\(JFK\\)",
		"• Arrives: Mar 15, 11:30 AM \\(LAX\\)",
		"• Duration: 5h 30m",
		"• Stops: Direct flight",
		"• Airline: AA",
		"",
		"🛬 *Return*",
		"• Departs: Mar 22, 02:00 PM \\(LAX\\)",
		"• Arrives: Mar 22, 10:15 PM \\(JFK\\)",
		"• Duration: 5h 15m",
		"• Stops: Direct flight",
		"• Airline: AA",
		"",
		"📊 *Why this is a deal:*",
		"✓ Price 299\\.99 <\\= 500",
		"✓ Direct flight",
		"",
		"[Book this flight](https://www.google.com/flights?hl=en#flt=JFK.LAX.2025-03-15.2025-03-22;c:USD;e:1)",
	}, "\n")
	if got := FormatDeal(roundTrip(), m); got != want {
		t.Fatalf("FormatDeal =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatDealOneWayWithStops(t *testing.T) {
	t.Parallel()
	o := flight.Offer{
		ID: "2",
		Itineraries: []flight.Itinerary{{Segments: []flight.Segment{
			leg("JFK", "ORD", "2025-03-15T08:00", "2025-03-15T10:00", 3*time.Hour),
			leg("ORD", "LAX", "2025-03-15T11:00", "2025-03-15T13:30", 4*time.Hour+30*time.Minute),
		}}},
		Price: flight.Price{Total: decimal.RequireFromString("150"), Currency: "EUR"},
	}
	got := FormatDeal(o, rules.NewMatchResult(nil, nil))
	for _, want := range []string{
		"*Type:* One\\-way",
		"🛫 *Flight Details*",
		"• Stops: 1 stop",
		"• Duration: 7h 30m",
		"*Price:* $150 EUR",
		"flt=JFK.LAX.2025-03-15;c:EUR;e:1",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatDeal missing %q in\n%s", want, got)
		}
	}
	if strings.Contains(got, "Why this is a deal") {
		t.Fatalf("reasons section should be omitted without passed reasons:\n%s", got)
	}
}

func TestEscape(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"1.5", "1\\.5"},
		{"a_b*c", "a\\_b\\*c"},
		{"(x)!", "\\(x\\)\\!"},
		{"→ ✓", "→ ✓"},
	}
	for _, tt := range tests {
		if got := escape(tt.in); got != tt.want {
			t.Fatalf("escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Minute, "45m"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{26*time.Hour + 10*time.Minute, "1d 2h 10m"},
		{0, "0m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want notify.Kind
	}{
		{"unauthorized", tele.ErrUnauthorized, notify.KindAuth},
		{"chat not found", tele.ErrChatNotFound, notify.KindChatNotFound},
		{"blocked", tele.ErrBlockedByUser, notify.KindChatNotFound},
		{"unknown api 400", fmt.Errorf("telegram: Bad Request: something odd (400)"), notify.KindChatNotFound},
		{"unknown api 500", fmt.Errorf("telegram: Internal Server Error (500)"), notify.KindDelivery},
		{"network", fmt.Errorf("telebot: %w", &url.Error{Op: "Post", URL: "x", Err: errors.New("connection refused")}), notify.KindNetwork},
		{"deadline", context.DeadlineExceeded, notify.KindNetwork},
		{"other", errors.New("boom"), notify.KindDelivery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ne := classify(7, tt.err)
			if ne.Kind != tt.want || ne.ChatID != 7 {
				t.Fatalf("classify = %s/%d, want %s/7", ne.Kind, ne.ChatID, tt.want)
			}
			if !errors.Is(ne, tt.err) {
				t.Fatalf("classified error should wrap the cause")
			}
		})
	}
}

type recordingSender struct {
	to   kit.ChatTarget
	text string
	opt  kit.SendOptions
	err  error
}

func (r *recordingSender) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	r.to, r.text, r.opt = to, text, *opt
	if r.err != nil {
		return kit.MessageRef{}, r.err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: 1}, nil
}

func TestSinkSendDeal(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{}
	s := New(rs, logx.Nop())
	if err := s.SendDeal(context.Background(), 42, roundTrip(), rules.NewMatchResult(nil, nil)); err != nil {
		t.Fatalf("SendDeal: %v", err)
	}
	if rs.to.ChatID != 42 {
		t.Fatalf("chat = %d, want 42", rs.to.ChatID)
	}
	if rs.opt.ParseMode != kit.ParseMarkdownV2 || !rs.opt.DisablePreview {
		t.Fatalf("opt = %+v", rs.opt)
	}
	if !strings.HasPrefix(rs.text, "✈️ *Great Deal Found\\!*") {
		t.Fatalf("text = %q", rs.text)
	}
}

func TestSinkThroughBotAPI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		reply string
		want  notify.Kind
	}{
		{"ok", `{"ok":true,"result":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"}}}`, ""},
		{"unauthorized", `{"ok":false,"error_code":401,"description":"Unauthorized"}`, notify.KindAuth},
		{"chat not found", `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, notify.KindChatNotFound},
		{"blocked", `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`, notify.KindChatNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tt.reply)
			}))
			defer srv.Close()
			a, err := adapter.New(adapter.Config{Token: "t", APIURL: srv.URL}, logx.Nop())
			if err != nil {
				t.Fatalf("adapter.New: %v", err)
			}
			err = New(a, logx.Nop()).SendDeal(context.Background(), 42, roundTrip(), rules.NewMatchResult(nil, nil))
			if got := notify.KindOf(err); got != tt.want {
				t.Fatalf("KindOf = %q, want %q (err=%v)", got, tt.want, err)
			}
		})
	}
}

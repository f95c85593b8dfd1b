package telegram

import (
	"fmt"
	"strings"
	"time"

	"raton/internal/flight"
	"raton/internal/rules"
)

const markdownV2Special = "_*[]()~`>#+-=|{}.!"

// escape prefixes every MarkdownV2 reserved character with a backslash.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

const timeLayout = "Jan 02, 03:04 PM"

func formatDateTime(t time.Time) string { return t.Format(timeLayout) }

// formatDuration renders "1d 2h 5m", "2h 5m" or "45m".
func formatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	days := total / (24 * 60)
	hours := total % (24 * 60) / 60
	mins := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

func formatStops(n int) string {
	switch n {
	case 0:
		return "Direct flight"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}

// bookingURL deep-links into a Google Flights search for the offer's
// outbound route and dates.
func bookingURL(o flight.Offer) string {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return "https://www.google.com/flights"
	}
	out := o.Itineraries[0].Segments
	origin := out[0].DepartureAirport
	dest := out[len(out)-1].ArrivalAirport
	flt := fmt.Sprintf("%s.%s.%s", origin, dest, out[0].DepartureTime.Format(flight.DateLayout))
	if o.IsRoundTrip() && len(o.Itineraries[1].Segments) > 0 {
		flt += "." + o.Itineraries[1].Segments[0].DepartureTime.Format(flight.DateLayout)
	}
	return fmt.Sprintf("https://www.google.com/flights?hl=en#flt=%s;c:%s;e:1", flt, o.Price.Currency)
}

func writeItinerary(b *strings.Builder, it flight.Itinerary) {
	if len(it.Segments) == 0 {
		return
	}
	first := it.Segments[0]
	last := it.Segments[len(it.Segments)-1]
	fmt.Fprintf(b, "• Departs: %s \\(%s\\)\n", formatDateTime(first.DepartureTime), escape(first.DepartureAirport))
	fmt.Fprintf(b, "• Arrives: %s \\(%s\\)\n", formatDateTime(last.ArrivalTime), escape(last.ArrivalAirport))
	fmt.Fprintf(b, "• Duration: %s\n", escape(formatDuration(it.TotalDuration())))
	fmt.Fprintf(b, "• Stops: %s\n", escape(formatStops(it.Stops())))
	fmt.Fprintf(b, "• Airline: %s\n", escape(first.Airline))
}

// FormatDeal renders a deal alert as MarkdownV2.
func FormatDeal(o flight.Offer, m rules.MatchResult) string {
	var b strings.Builder
	b.WriteString("✈️ *Great Deal Found\\!*\n\n")

	if len(o.Itineraries) > 0 && len(o.Itineraries[0].Segments) > 0 {
		out := o.Itineraries[0].Segments
		fmt.Fprintf(&b, "*Route:* %s → %s\n", escape(out[0].DepartureAirport), escape(out[len(out)-1].ArrivalAirport))
	}
	if o.IsRoundTrip() {
		b.WriteString("*Type:* Round\\-trip\n")
	} else {
		b.WriteString("*Type:* One\\-way\n")
	}
	fmt.Fprintf(&b, "*Price:* %s\n\n", escape(fmt.Sprintf("$%s %s", o.Price.Total.String(), o.Price.Currency)))

	if o.IsRoundTrip() {
		b.WriteString("🛫 *Outbound*\n")
		writeItinerary(&b, o.Itineraries[0])
		b.WriteString("\n🛬 *Return*\n")
		writeItinerary(&b, o.Itineraries[1])
		b.WriteString("\n")
	} else if len(o.Itineraries) == 1 {
		b.WriteString("🛫 *Flight Details*\n")
		writeItinerary(&b, o.Itineraries[0])
		b.WriteString("\n")
	}

	if reasons := m.Passed(); len(reasons) > 0 {
		b.WriteString("📊 *Why this is a deal:*\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "✓ %s\n", escape(r))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "[Book this flight](%s)", bookingURL(o))
	return b.String()
}

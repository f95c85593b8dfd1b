// Package rules scores a normalized offer against one user's preferences.
//
// Four rules run in a fixed order and never short-circuit, so every
// evaluation explains itself completely: currency, price, stops, duration.
package rules

import (
	"fmt"

	"raton/internal/flight"
)

// Rule reports whether an offer satisfies one criterion and why.
type Rule func(o flight.Offer, p flight.Preferences) (passed bool, reason string)

// ordered is the evaluation order. Reason positions in MatchResult follow it.
var ordered = [...]Rule{
	CheckCurrency,
	CheckPrice,
	CheckStops,
	CheckDuration,
}

// Count is the number of rules Evaluate runs.
const Count = len(ordered)

// Evaluate runs every rule and partitions the reasons. It is pure.
func Evaluate(o flight.Offer, p flight.Preferences) MatchResult {
	passed := make([]string, 0, Count)
	var failed []string
	for _, r := range ordered {
		ok, reason := r(o, p)
		if ok {
			passed = append(passed, reason)
		} else {
			failed = append(failed, reason)
		}
	}
	return MatchResult{passed: passed, failed: failed}
}

// CheckCurrency requires an exact, case-sensitive currency code match.
func CheckCurrency(o flight.Offer, p flight.Preferences) (bool, string) {
	if o.Price.Currency == p.Currency {
		return true, fmt.Sprintf("Currency matches (%s)", p.Currency)
	}
	return false, fmt.Sprintf("Currency mismatch: flight is %s, expected %s", o.Price.Currency, p.Currency)
}

// CheckPrice passes when the total is at or below the budget.
func CheckPrice(o flight.Offer, p flight.Preferences) (bool, string) {
	if o.Price.Total.LessThanOrEqual(p.MaxPrice) {
		return true, fmt.Sprintf("Price %s %s is within budget of %s", o.Price.Total, o.Price.Currency, p.MaxPrice)
	}
	return false, fmt.Sprintf("Price %s %s exceeds max %s", o.Price.Total, o.Price.Currency, p.MaxPrice)
}

func CheckStops(o flight.Offer, p flight.Preferences) (bool, string) {
	stops := o.TotalStops()
	switch p.StopPreference {
	case flight.StopsDirectOnly:
		if stops == 0 {
			return true, "Direct flight as required"
		}
		return false, fmt.Sprintf("Flight has %d stops, but direct only required", stops)
	case flight.StopsMaxOne:
		if stops <= 1 {
			return true, fmt.Sprintf("Flight has %d stops (max 1 allowed)", stops)
		}
		return false, fmt.Sprintf("Flight has %d stops, but max 1 allowed", stops)
	case flight.StopsAny:
		return true, fmt.Sprintf("Any stops allowed (%d stops)", stops)
	default:
		return false, fmt.Sprintf("Unknown stop preference %q", p.StopPreference)
	}
}

// CheckDuration compares the summed duration of all itineraries against
// the optional limit, inclusively.
func CheckDuration(o flight.Offer, p flight.Preferences) (bool, string) {
	if p.MaxDuration == nil {
		return true, "No duration limit specified"
	}
	total := o.TotalDuration()
	if total <= *p.MaxDuration {
		return true, fmt.Sprintf("Duration %s is within limit of %s", total, *p.MaxDuration)
	}
	return false, fmt.Sprintf("Duration %s exceeds max %s", total, *p.MaxDuration)
}

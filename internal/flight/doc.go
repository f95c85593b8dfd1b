// Package flight holds the normalized domain model shared by the mapper,
// the rule evaluator and the check cycle: offers (segments, itineraries,
// prices) and the per-user search preferences.
//
// Money is always decimal.Decimal; durations are time.Duration.
package flight

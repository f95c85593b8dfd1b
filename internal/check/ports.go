package check

import (
	"context"

	"raton/internal/flight"
	"raton/internal/offer"
	"raton/internal/rules"
	"raton/internal/search"
)

// PreferencesStore is the read side of the preferences store.
type PreferencesStore interface {
	ListUsers(ctx context.Context) ([]int64, error)
	Load(ctx context.Context, chatID int64) (flight.Preferences, error)
}

// FlightSearchProvider returns raw offers; mapping happens per offer.
type FlightSearchProvider interface {
	Search(ctx context.Context, req search.Request) ([]offer.Raw, error)
}

type NotificationSink interface {
	SendDeal(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error
}

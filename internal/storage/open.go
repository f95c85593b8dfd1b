package storage

import (
	"context"
	"fmt"
	"strings"

	logx "raton/pkg/logx"
)

// Store is the deal journal.
type Store interface {
	AppendDeal(ctx context.Context, r DealRecord) error
	// RecentDeals returns up to limit records, newest first. chatID 0
	// matches every chat.
	RecentDeals(ctx context.Context, chatID int64, limit int) ([]DealRecord, error)
	Close() error
}

type opener func(Config, logx.Logger) (Store, error)

var drivers = map[string]opener{
	"file":    openFile,
	"sqlite":  openSQLite,
	"sqlite3": openSQLite,
}

// Enabled reports whether driver selects a journal at all.
func Enabled(driver string) bool {
	d := normalizeDriver(driver)
	return d != "" && d != "none"
}

// Open returns the journal for cfg.Driver, or (nil, nil) when the journal
// is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if !Enabled(cfg.Driver) {
		return nil, nil
	}
	open, ok := drivers[normalizeDriver(cfg.Driver)]
	if !ok {
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return open(cfg, log.With(logx.String("comp", "journal")))
}

func normalizeDriver(d string) string { return strings.ToLower(strings.TrimSpace(d)) }

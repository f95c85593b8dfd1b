// Package preferences persists per-chat search preferences.
//
// Two drivers exist: "yaml" keeps one <chat_id>.yaml document per user in
// a directory, "sqlite" keeps the same documents in a single table. Every
// error returned is a *Error tagged not_found or storage.
package preferences

import (
	"context"
	"errors"
	"strings"
	"time"

	"raton/internal/flight"
	logx "raton/pkg/logx"
)

type Store interface {
	// Save creates or replaces the preferences of chatID.
	Save(ctx context.Context, chatID int64, p flight.Preferences) error
	Load(ctx context.Context, chatID int64) (flight.Preferences, error)
	// Update is Save under another name; it does not require prior existence.
	Update(ctx context.Context, chatID int64, p flight.Preferences) error
	Delete(ctx context.Context, chatID int64) error
	// ListUsers returns every chat with stored preferences in ascending order.
	ListUsers(ctx context.Context) ([]int64, error)
	Exists(ctx context.Context, chatID int64) (bool, error)
	Close() error
}

// Config selects and configures a driver.
//
// Driver values:
//   - "yaml" (default): Dir holds one file per chat
//   - "sqlite": Path is the database file
type Config struct {
	Driver      string
	Dir         string
	Path        string
	BusyTimeout time.Duration
}

func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "preferences"))
	switch d := strings.ToLower(strings.TrimSpace(cfg.Driver)); d {
	case "", "yaml", "file":
		return NewYAMLStore(cfg.Dir, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown preferences driver: " + d)
	}
}

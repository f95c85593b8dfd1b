package app

import (
	"fmt"
	"strings"
	"time"

	"raton/internal/config"
	"raton/internal/preferences"
	"raton/internal/storage"
	logx "raton/pkg/logx"
)

// mapJournalConfig returns (config, enabled, error).
func mapJournalConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Journal == nil {
		return storage.Config{}, false, nil
	}
	jc := cfg.Journal
	if !storage.Enabled(jc.Driver) {
		return storage.Config{}, false, nil
	}
	driver := strings.ToLower(strings.TrimSpace(jc.Driver))
	path := strings.TrimSpace(jc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("journal.path is required when journal.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("journal.busy_timeout", jc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown journal.driver: %s", jc.Driver)
	}
}

func mapPreferencesConfig(cfg *config.Config) (preferences.Config, error) {
	pc := cfg.Preferences
	busy, err := config.ParseDurationOrDefault("preferences.busy_timeout", pc.BusyTimeout, time.Second)
	if err != nil {
		return preferences.Config{}, err
	}
	return preferences.Config{
		Driver:      strings.TrimSpace(pc.Driver),
		Dir:         strings.TrimSpace(pc.Dir),
		Path:        strings.TrimSpace(pc.Path),
		BusyTimeout: busy,
	}, nil
}

// OpenPreferences opens the configured preferences store.
func OpenPreferences(cfg *config.Config, log logx.Logger) (preferences.Store, error) {
	pc, err := mapPreferencesConfig(cfg)
	if err != nil {
		return nil, err
	}
	return preferences.Open(pc, log)
}

// OpenJournal opens the deal journal. It returns (nil, nil) when the
// journal is disabled.
func OpenJournal(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	sc, enabled, err := mapJournalConfig(cfg)
	if err != nil || !enabled {
		return nil, err
	}
	st, err := storage.Open(sc, log)
	if err != nil {
		return nil, err
	}
	log.Info("journal enabled", logx.String("driver", sc.Driver))
	return st, nil
}

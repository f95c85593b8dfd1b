package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"raton/internal/task/scheduler"
	logx "raton/pkg/logx"
)

const (
	DefaultDataDir  = "./data"
	DefaultSchedule = "1h"
	DefaultLogLevel = "INFO"
)

// ApplyDefaults fills unset fields. Relative storage paths are rooted at
// DataDir.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.Amadeus.Hostname) == "" {
		c.Amadeus.Hostname = "test"
	}
	if strings.TrimSpace(c.Scheduler.Schedule) == "" {
		c.Scheduler.Schedule = DefaultSchedule
	}
	if c.Scheduler.RunOnStart == nil {
		v := true
		c.Scheduler.RunOnStart = &v
	}
	if c.Check.Workers <= 0 {
		c.Check.Workers = 1
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if !c.Logging.Console && !c.Logging.File.Enabled && !c.Logging.Telegram.Enabled {
		c.Logging.Console = true
	}
	if c.Logging.File.Enabled && strings.TrimSpace(c.Logging.File.Path) == "" {
		c.Logging.File.Path = filepath.Join(c.DataDir, "raton.log")
	}

	switch strings.ToLower(strings.TrimSpace(c.Preferences.Driver)) {
	case "sqlite", "sqlite3":
		if strings.TrimSpace(c.Preferences.Path) == "" {
			c.Preferences.Path = filepath.Join(c.DataDir, "preferences.db")
		}
	default:
		if strings.TrimSpace(c.Preferences.Dir) == "" {
			c.Preferences.Dir = filepath.Join(c.DataDir, "preferences")
		}
	}
	if c.Journal != nil && strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = filepath.Join(c.DataDir, "raton")
	}
}

// Validate checks everything that can be checked without network access.
// Credentials are checked separately by RequireCredentials.
func (c *Config) Validate() error {
	var errs []error
	if _, err := scheduler.ParseSchedule(c.Scheduler.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.schedule: %w", err))
	}
	if !logx.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Check.Workers < 0 {
		errs = append(errs, errors.New("check.workers: must be >= 0"))
	}
	if c.Amadeus.MaxResults < 0 || c.Amadeus.MaxResults > 250 {
		errs = append(errs, errors.New("amadeus.max_results: must be between 0 and 250"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Amadeus.Hostname)) {
	case "", "test", "production":
	default:
		errs = append(errs, fmt.Errorf("amadeus.hostname: must be test or production, got %q", c.Amadeus.Hostname))
	}
	switch strings.ToLower(strings.TrimSpace(c.Preferences.Driver)) {
	case "", "yaml", "file", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("preferences.driver: unknown driver %q", c.Preferences.Driver))
	}
	if c.Journal != nil {
		switch strings.ToLower(strings.TrimSpace(c.Journal.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			errs = append(errs, fmt.Errorf("journal.driver: unknown driver %q", c.Journal.Driver))
		}
	}
	for path, raw := range map[string]string{
		"telegram.timeout":         c.Telegram.Timeout,
		"amadeus.timeout":          c.Amadeus.Timeout,
		"check.timeout":            c.Check.Timeout,
		"preferences.busy_timeout": c.Preferences.BusyTimeout,
		"status.read_timeout":      c.Status.ReadTimeout,
		"status.write_timeout":     c.Status.WriteTimeout,
		"status.idle_timeout":      c.Status.IdleTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Journal != nil {
		if _, err := ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RequireCredentials reports missing secrets needed to run check cycles.
func (c *Config) RequireCredentials() error {
	var missing []string
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(c.Amadeus.APIKey) == "" {
		missing = append(missing, EnvAmadeusKey)
	}
	if strings.TrimSpace(c.Amadeus.APISecret) == "" {
		missing = append(missing, EnvAmadeusSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

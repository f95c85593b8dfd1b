package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvTelegramToken      = "TELEGRAM_BOT_TOKEN"
	EnvAmadeusKey         = "AMADEUS_API_KEY"
	EnvAmadeusSecret      = "AMADEUS_API_SECRET"
	EnvAmadeusHostname    = "AMADEUS_HOSTNAME"
	EnvCheckIntervalHours = "CHECK_INTERVAL_HOURS"
	EnvLogLevel           = "LOG_LEVEL"
	EnvDataDir            = "DATA_DIR"
)

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment values onto cfg. getenv defaults to
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Telegram.Token, EnvTelegramToken)
	set(&c.Amadeus.APIKey, EnvAmadeusKey)
	set(&c.Amadeus.APISecret, EnvAmadeusSecret)
	set(&c.Amadeus.Hostname, EnvAmadeusHostname)
	set(&c.Logging.Level, EnvLogLevel)
	set(&c.DataDir, EnvDataDir)

	if v := strings.TrimSpace(getenv(EnvCheckIntervalHours)); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return fmt.Errorf("%s: must be a positive integer, got %q", EnvCheckIntervalHours, v)
		}
		c.Scheduler.Schedule = fmt.Sprintf("%dh", h)
	}
	return nil
}

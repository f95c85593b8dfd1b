package app

import (
	"strconv"
	"strings"
	"time"

	"raton/internal/config"
	"raton/internal/observability/status"
	"raton/internal/search/amadeus"
	"raton/internal/task/scheduler"
	telegram "raton/internal/transport/telegram/adapter"
	logx "raton/pkg/logx"
)

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 15*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:           cfg.Telegram.Token,
		TestEnvironment: cfg.Telegram.TestEnvironment,
		APIURL:          cfg.Telegram.APIURL,
		Timeout:         timeout,
	}, nil
}

func mapAmadeusConfig(cfg *config.Config) (amadeus.Config, error) {
	timeout, err := config.ParseDurationOrDefault("amadeus.timeout", cfg.Amadeus.Timeout, 30*time.Second)
	if err != nil {
		return amadeus.Config{}, err
	}
	return amadeus.Config{
		APIKey:     cfg.Amadeus.APIKey,
		APISecret:  cfg.Amadeus.APISecret,
		Hostname:   cfg.Amadeus.Hostname,
		BaseURL:    cfg.Amadeus.BaseURL,
		Timeout:    timeout,
		MaxResults: cfg.Amadeus.MaxResults,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) scheduler.Config {
	runOnStart := true
	if cfg.Scheduler.RunOnStart != nil {
		runOnStart = *cfg.Scheduler.RunOnStart
	}
	return scheduler.Config{
		Schedule:   cfg.Scheduler.Schedule,
		Timezone:   strings.TrimSpace(cfg.Scheduler.Timezone),
		RunOnStart: runOnStart,
	}
}

// defaultCheckTimeout bounds a cycle when check.timeout is unset. Shutdown
// waits for an in-flight cycle, so this also bounds Stop.
const defaultCheckTimeout = 5 * time.Minute

func mapCheckTimeout(cfg *config.Config) (time.Duration, error) {
	return config.ParseDurationOrDefault("check.timeout", cfg.Check.Timeout, defaultCheckTimeout)
}

func mapStatusConfig(cfg *config.Config) (status.Config, error) {
	sc := cfg.Status
	read, err := config.ParseDurationOrDefault("status.read_timeout", sc.ReadTimeout, 5*time.Second)
	if err != nil {
		return status.Config{}, err
	}
	write, err := config.ParseDurationOrDefault("status.write_timeout", sc.WriteTimeout, 10*time.Second)
	if err != nil {
		return status.Config{}, err
	}
	idle, err := config.ParseDurationOrDefault("status.idle_timeout", sc.IdleTimeout, 60*time.Second)
	if err != nil {
		return status.Config{}, err
	}
	return status.Config{
		Enabled:       sc.Enabled,
		Addr:          strings.TrimSpace(sc.Addr),
		Token:         sc.Token,
		AllowInsecure: sc.AllowInsecure,
		PProf:         sc.PProf,
		ReadTimeout:   read,
		WriteTimeout:  write,
		IdleTimeout:   idle,
	}, nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// logTarget parses telegram.group_log. An empty or invalid value yields 0.
func logTarget(cfg *config.Config) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(cfg.Telegram.GroupLog), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

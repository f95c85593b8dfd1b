package config

// Config is the on-disk configuration. Every duration is a Go duration
// string (e.g. "500ms", "10s", "1m"). Secrets usually come from the
// environment; see ApplyEnv.
type Config struct {
	// DataDir roots relative storage paths. Default: "./data".
	DataDir string `json:"data_dir,omitempty"`

	Telegram    TelegramConfig    `json:"telegram"`
	Amadeus     AmadeusConfig     `json:"amadeus"`
	Scheduler   SchedulerConfig   `json:"scheduler"`
	Check       CheckConfig       `json:"check"`
	Preferences PreferencesConfig `json:"preferences"`
	Logging     LoggingConfig     `json:"logging"`

	// Journal records delivered deals. Nil or driver "none" disables it.
	Journal *JournalConfig `json:"journal,omitempty"`
	Status  StatusConfig   `json:"status,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// TestEnvironment talks to Telegram's test data center.
	TestEnvironment bool   `json:"test_environment,omitempty"`
	APIURL          string `json:"api_url,omitempty"`
	Timeout         string `json:"timeout,omitempty"`
	// GroupLog is the operator chat id receiving forwarded log lines.
	GroupLog string `json:"group_log,omitempty"`
}

type AmadeusConfig struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	// Hostname is "test" (default) or "production".
	Hostname   string `json:"hostname,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SchedulerConfig controls how often the check cycle runs.
//
// Defaults:
//   - schedule: "1h"
//   - run_on_start: true
type SchedulerConfig struct {
	Schedule   string `json:"schedule,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	RunOnStart *bool  `json:"run_on_start,omitempty"`
}

type CheckConfig struct {
	// Workers checks that many users concurrently. Default: 1.
	Workers int `json:"workers,omitempty"`
	// Timeout bounds one cycle; "0s" or empty disables it.
	Timeout string `json:"timeout,omitempty"`
}

// PreferencesConfig selects the preferences store.
//
// Example:
//
//	"preferences": { "driver": "yaml", "dir": "./data/preferences" }
type PreferencesConfig struct {
	Driver      string `json:"driver,omitempty"` // yaml (default) | sqlite
	Dir         string `json:"dir,omitempty"`
	Path        string `json:"path,omitempty"` // sqlite database file
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// JournalConfig controls the delivered-deal journal.
//
// Example:
//
//	"journal": { "driver": "file", "path": "./data/raton" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// StatusConfig controls the optional status HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:8080").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type StatusConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	PProf         bool   `json:"pprof,omitempty"`

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

package config

import (
	"reflect"
	"sort"
	"strings"

	logx "raton/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact, sorted list of changed
// sections and (2) safe structured attrs for logging. Secrets (tokens,
// API keys) are reported only as "set" flags.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.DataDir != newCfg.DataDir {
		changed = append(changed, "data_dir")
		attrs = append(attrs, logx.String("data_dir", newCfg.DataDir))
	}

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.Token != nt.Token || ot.TestEnvironment != nt.TestEnvironment ||
		strings.TrimSpace(ot.APIURL) != strings.TrimSpace(nt.APIURL) ||
		strings.TrimSpace(ot.Timeout) != strings.TrimSpace(nt.Timeout) ||
		strings.TrimSpace(ot.GroupLog) != strings.TrimSpace(nt.GroupLog) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.Bool("telegram.test_environment", nt.TestEnvironment),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(nt.GroupLog) != ""),
		)
	}

	oa, na := oldCfg.Amadeus, newCfg.Amadeus
	if oa != na {
		changed = append(changed, "amadeus")
		attrs = append(attrs,
			logx.String("amadeus.hostname", na.Hostname),
			logx.Bool("amadeus.base_url_set", strings.TrimSpace(na.BaseURL) != ""),
			logx.Bool("amadeus.credentials_changed", oa.APIKey != na.APIKey || oa.APISecret != na.APISecret),
			logx.Int("amadeus.max_results", na.MaxResults),
		)
	}

	if !reflect.DeepEqual(oldCfg.Scheduler, newCfg.Scheduler) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.String("scheduler.schedule", newCfg.Scheduler.Schedule),
			logx.String("scheduler.timezone", strings.TrimSpace(newCfg.Scheduler.Timezone)),
		)
	}

	if oldCfg.Check != newCfg.Check {
		changed = append(changed, "check")
		attrs = append(attrs,
			logx.Int("check.workers", newCfg.Check.Workers),
			logx.String("check.timeout", newCfg.Check.Timeout),
		)
	}

	if oldCfg.Preferences != newCfg.Preferences {
		changed = append(changed, "preferences")
		attrs = append(attrs, logx.String("preferences.driver", newCfg.Preferences.Driver))
	}

	// Nil means disabled.
	var oj, nj JournalConfig
	if oldCfg.Journal != nil {
		oj = *oldCfg.Journal
	}
	if newCfg.Journal != nil {
		nj = *newCfg.Journal
	}
	if oj != nj {
		changed = append(changed, "journal")
		attrs = append(attrs,
			logx.String("journal.driver", strings.TrimSpace(nj.Driver)),
			logx.Bool("journal.path_set", strings.TrimSpace(nj.Path) != ""),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	// Never log the token.
	ost, nst := oldCfg.Status, newCfg.Status
	if ost != nst {
		changed = append(changed, "status")
		attrs = append(attrs,
			logx.Bool("status.enabled", nst.Enabled),
			logx.String("status.addr", strings.TrimSpace(nst.Addr)),
			logx.Bool("status.token_set", strings.TrimSpace(nst.Token) != ""),
			logx.Bool("status.pprof", nst.PProf),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

package app

import (
	"raton/internal/config"
	kit "raton/internal/transport"
	logx "raton/pkg/logx"
)

// newLogging builds the log service. logx.New applies its config right
// away and warns when Telegram forwarding is on without a target, so the
// service starts with forwarding off, gets its target, then applies the
// final config.
func newLogging(cfg *config.Config, sender kit.Sender) (*logx.Service, logx.Logger) {
	lc := mapLoggingConfig(cfg)
	boot := lc
	boot.Telegram.Enabled = false
	svc, log := logx.New(boot, sender)
	applyLogging(svc, cfg)
	return svc, log
}

// applyLogging sets the operator log target before applying cfg.
func applyLogging(svc *logx.Service, cfg *config.Config) {
	svc.SetTelegramTarget(logTarget(cfg), cfg.Logging.Telegram.ThreadID)
	svc.Apply(mapLoggingConfig(cfg))
}

// Package app wires configuration, collaborators and background loops into
// the running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"raton/internal/check"
	"raton/internal/config"
	"raton/internal/eventbus"
	"raton/internal/notify"
	tgnotify "raton/internal/notify/telegram"
	"raton/internal/observability/status"
	"raton/internal/preferences"
	"raton/internal/runtime/supervisor"
	"raton/internal/search/amadeus"
	"raton/internal/storage"
	"raton/internal/task/scheduler"
	telegram "raton/internal/transport/telegram/adapter"
	logx "raton/pkg/logx"
)

// stopGrace covers the non-cycle stop work.
const stopGrace = 10 * time.Second

// Sections that are read once at startup.
var restartRequired = []string{"data_dir", "telegram", "amadeus", "preferences", "journal"}

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	adapter *telegram.Adapter
	prefs   preferences.Store
	journal storage.Store

	check  *check.Orchestrator
	sched  *scheduler.Runner
	status *status.Service

	checkTimeout atomic.Int64
	startedAt    time.Time
}

// New loads the configuration and builds every collaborator. Nothing runs
// until Start or RunOnce.
func New(cfgm *config.ConfigManager) (*App, error) {
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	tc, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	bootLog := logx.NewConsole(cfg.Logging.Level)
	ad, err := telegram.New(tc, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, root := newLogging(cfg, ad)
	log := root.With(logx.String("comp", "app"))

	a := &App{cfgm: cfgm, log: log, logs: logSvc, bus: eventbus.New(), adapter: ad}
	if err := a.build(cfg, root); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config, root logx.Logger) error {
	var err error
	if a.prefs, err = OpenPreferences(cfg, root); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	if a.journal, err = OpenJournal(cfg, root); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	ac, err := mapAmadeusConfig(cfg)
	if err != nil {
		return err
	}
	provider, err := amadeus.New(ac, root)
	if err != nil {
		return err
	}

	timeout, err := mapCheckTimeout(cfg)
	if err != nil {
		return err
	}
	a.checkTimeout.Store(int64(timeout))

	sink := notify.WithJournal(tgnotify.New(a.adapter, root), a.journal, root)
	a.check = check.New(a.prefs, provider, sink, check.Options{
		Workers: cfg.Check.Workers,
		Bus:     a.bus,
		Log:     root,
	})

	a.sched, err = scheduler.New("check", mapSchedulerConfig(cfg), func(ctx context.Context) error {
		_, err := a.RunOnce(ctx)
		return err
	}, scheduler.WithLogger(root), scheduler.WithBus(a.bus))
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	sc, err := mapStatusConfig(cfg)
	if err != nil {
		return err
	}
	a.status = status.New(sc, a.statusDoc, root)
	return nil
}

// RunOnce runs a single check cycle bounded by check.timeout.
func (a *App) RunOnce(ctx context.Context) (check.CheckResult, error) {
	d := time.Duration(a.checkTimeout.Load())
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	res := a.check.Run(ctx)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("check cycle exceeded %s (%s)", d, res)
	}
	return res, nil
}

func (a *App) cycleBound() time.Duration { return time.Duration(a.checkTimeout.Load()) }

// StopTimeout is the deadline a caller should give Stop so an in-flight
// check cycle can finish.
func (a *App) StopTimeout() time.Duration { return a.cycleBound() + 2*stopGrace }

// Done is closed when the app supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start launches the scheduler, the status server and config hot reload.
func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.startedAt = time.Now()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validateReload)

	a.sup.Go("scheduler", a.sched.Run)
	a.status.Start(a.sup.Context())

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: only the newest config is applied.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("app started",
		logx.String("schedule", a.sched.Snapshot().Spec),
		logx.Bool("journal", a.journal != nil),
		logx.String("status_addr", a.status.Addr()),
	)
	return nil
}

// validateReload rejects a reloaded config that a live component could
// not apply.
func validateReload(_ context.Context, cfg *config.Config) error {
	if _, err := mapTelegramConfig(cfg); err != nil {
		return err
	}
	if _, err := mapAmadeusConfig(cfg); err != nil {
		return err
	}
	if _, err := mapCheckTimeout(cfg); err != nil {
		return err
	}
	if _, err := mapStatusConfig(cfg); err != nil {
		return err
	}
	if _, _, err := mapJournalConfig(cfg); err != nil {
		return err
	}
	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
		}
	}
	return nil
}

func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, s := range sections {
		if slices.Contains(restartRequired, s) {
			a.log.Warn("config section changed; restart required for it to take effect", logx.String("section", s))
		}
	}
	if oldCfg != nil && oldCfg.Check.Workers != newCfg.Check.Workers {
		a.log.Warn("check.workers changed; restart required for it to take effect")
	}

	// The operator log target lives under telegram but applies live.
	applyLogging(a.logs, newCfg)

	if err := a.sched.Reschedule(mapSchedulerConfig(newCfg)); err != nil {
		a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
	}
	if d, err := mapCheckTimeout(newCfg); err != nil {
		a.log.Warn("invalid check.timeout; keeping previous", logx.Err(err))
	} else {
		a.checkTimeout.Store(int64(d))
	}
	if sc, err := mapStatusConfig(newCfg); err != nil {
		a.log.Warn("invalid status config; keeping previous", logx.Err(err))
	} else {
		a.status.Reconfigure(ctx, sc)
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

type telegramStats struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

type statusDoc struct {
	StartedAt  time.Time                     `json:"started_at"`
	Uptime     string                        `json:"uptime"`
	Scheduler  scheduler.Snapshot            `json:"scheduler"`
	LastCycle  *check.Cycle                  `json:"last_cycle,omitempty"`
	Telegram   telegramStats                 `json:"telegram"`
	Supervisor supervisor.SupervisorSnapshot `json:"supervisor"`
}

func (a *App) statusDoc() any {
	doc := statusDoc{
		StartedAt:  a.startedAt,
		Uptime:     time.Since(a.startedAt).Truncate(time.Second).String(),
		Scheduler:  a.sched.Snapshot(),
		Supervisor: a.sup.Snapshot(),
	}
	if c, ok := a.check.LastCycle(); ok {
		doc.LastCycle = &c
	}
	doc.Telegram.Sent, doc.Telegram.Failed = a.adapter.Stats()
	return doc
}

// Stop cancels background loops and releases resources. Every step is
// bounded so one stuck component cannot stall shutdown.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeResources()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	a.step(ctx, "status", time.Second, func(c context.Context) error { a.status.Stop(c); return nil })
	// The scheduler awaits an in-flight cycle, which only check.timeout
	// bounds.
	a.step(ctx, "supervisor", a.cycleBound()+stopGrace, func(c context.Context) error { return a.sup.Wait(c) })
	a.step(ctx, "journal", time.Second, func(context.Context) error {
		if a.journal != nil {
			return a.journal.Close()
		}
		return nil
	})
	a.step(ctx, "preferences", time.Second, func(context.Context) error {
		if a.prefs != nil {
			return a.prefs.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func (a *App) closeResources() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
	if a.prefs != nil {
		_ = a.prefs.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

// step runs fn with an upper bound that never extends ctx's deadline.
func (a *App) step(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		limit = min(limit, time.Until(dl))
	}
	if limit <= 0 {
		a.log.Warn("stop step skipped: deadline reached", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
		go func() {
			if err := <-done; err != nil {
				a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err))
			}
		}()
	}
}

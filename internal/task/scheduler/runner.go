package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"raton/internal/eventbus"
	logx "raton/pkg/logx"
)

type Option func(*Runner)

func WithClock(c Clock) Option { return func(r *Runner) { r.clock = c } }

func WithLogger(log logx.Logger) Option { return func(r *Runner) { r.log = log } }

func WithBus(bus eventbus.Bus) Option { return func(r *Runner) { r.bus = bus } }

// Runner triggers a single job on a schedule.
type Runner struct {
	name  string
	job   Job
	clock Clock
	log   logx.Logger
	bus   eventbus.Bus

	runOnStart bool
	wake       chan struct{}

	runs     atomic.Uint64
	failures atomic.Uint64

	mu        sync.Mutex
	spec      ParsedSpec
	sched     cron.Schedule
	loc       *time.Location
	running   bool
	lastStart time.Time
	lastEnd   time.Time
	lastErr   string
	next      time.Time
}

func New(name string, cfg Config, job Job, opts ...Option) (*Runner, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name required")
	}
	if job == nil {
		return nil, fmt.Errorf("job required")
	}
	r := &Runner{
		name:       name,
		job:        job,
		clock:      realClock{},
		runOnStart: cfg.RunOnStart,
		wake:       make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(r)
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	r.log = r.log.With(logx.String("comp", "scheduler"), logx.String("name", name))
	if err := r.apply(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reschedule swaps the schedule and timezone. A pending wait is
// re-evaluated immediately; a running job is not interrupted.
func (r *Runner) Reschedule(cfg Config) error {
	if err := r.apply(cfg); err != nil {
		return err
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
	return nil
}

func (r *Runner) apply(cfg Config) error {
	ps, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}
	sched, err := ps.Schedule(loc)
	if err != nil {
		return err
	}
	r.mu.Lock()
	changed := r.sched != nil && ps.String() != r.spec.String()
	r.spec, r.sched, r.loc = ps, sched, loc
	r.mu.Unlock()
	if changed {
		r.log.Info("schedule updated", logx.String("spec", ps.String()), logx.String("tz", loc.String()))
	}
	return nil
}

// Run blocks until ctx is cancelled. Cancellation is observed between
// runs; an in-flight run is awaited and is not cancelled with ctx.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("scheduler started", logx.String("spec", r.Snapshot().Spec), logx.Bool("run_on_start", r.runOnStart))
	defer r.log.Info("scheduler stopped", logx.Uint64("runs", r.runs.Load()))

	if r.runOnStart {
		r.runOnce(ctx)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		now := r.clock.Now()
		r.mu.Lock()
		next := r.sched.Next(now.In(r.loc))
		r.next = next
		r.mu.Unlock()

		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		r.log.Debug("next run scheduled", logx.String("at", next.Format(time.RFC3339)), logx.Duration("in", wait))

		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
			continue
		case <-r.clock.After(wait):
		}
		r.runOnce(ctx)
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	n := r.runs.Add(1)
	start := r.clock.Now()
	r.mu.Lock()
	r.running = true
	r.lastStart = start
	r.mu.Unlock()
	r.publish(EventRunStarted, RunInfo{Name: r.name, Run: n, Started: start})

	// Shutdown is observed between runs only; a started run keeps its
	// values but not ctx's cancellation.
	err := r.call(context.WithoutCancel(ctx))

	end := r.clock.Now()
	info := RunInfo{Name: r.name, Run: n, Started: start, Duration: end.Sub(start)}
	r.mu.Lock()
	r.running = false
	r.lastEnd = end
	r.lastErr = ""
	if err != nil {
		r.lastErr = err.Error()
		info.Err = r.lastErr
	}
	r.mu.Unlock()

	if err != nil {
		r.failures.Add(1)
		r.log.Error("scheduled run failed", logx.Uint64("run", n), logx.Err(err))
	} else {
		r.log.Debug("scheduled run finished", logx.Uint64("run", n), logx.Duration("took", info.Duration))
	}
	r.publish(EventRunFinished, info)
}

func (r *Runner) call(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			r.log.Error("scheduled run panicked", logx.Any("panic", p), logx.String("stack", string(debug.Stack())))
		}
	}()
	return r.job(ctx)
}

func (r *Runner) publish(typ string, data RunInfo) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.Event{Type: typ, Time: r.clock.Now(), Data: data})
}

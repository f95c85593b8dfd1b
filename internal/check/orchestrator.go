// Package check runs deal-check cycles: for every stored user it searches
// each route, maps and evaluates the returned offers and notifies matches.
package check

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"raton/internal/eventbus"
	"raton/internal/notify"
	"raton/internal/offer"
	"raton/internal/preferences"
	"raton/internal/rules"
	"raton/internal/runtime/supervisor"
	"raton/internal/search"
	logx "raton/pkg/logx"
)

// Event types published on the bus.
const (
	EventDealMatched    = "check.deal_matched"
	EventCycleCompleted = "check.cycle_completed"
)

type Options struct {
	// Workers is the number of users checked concurrently. Values below 2
	// check users one after another in store order.
	Workers int
	Bus     eventbus.Bus
	Log     logx.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Cycle describes a finished run.
type Cycle struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Result     CheckResult   `json:"result"`
	Elapsed    time.Duration `json:"elapsed"`
}

// DealMatched is the payload of EventDealMatched.
type DealMatched struct {
	CycleID  string `json:"cycle_id"`
	ChatID   int64  `json:"chat_id"`
	OfferID  string `json:"offer_id"`
	Total    string `json:"total"`
	Currency string `json:"currency"`
	Sent     bool   `json:"sent"`
}

type Orchestrator struct {
	prefs    PreferencesStore
	provider FlightSearchProvider
	sink     NotificationSink

	workers int
	bus     eventbus.Bus
	log     logx.Logger
	now     func() time.Time

	last atomic.Pointer[Cycle]
}

func New(prefs PreferencesStore, provider FlightSearchProvider, sink NotificationSink, opts Options) *Orchestrator {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		prefs:    prefs,
		provider: provider,
		sink:     sink,
		workers:  opts.Workers,
		bus:      opts.Bus,
		log:      log.With(logx.String("comp", "check")),
		now:      now,
	}
}

// LastCycle returns the most recent finished cycle.
func (o *Orchestrator) LastCycle() (Cycle, bool) {
	c := o.last.Load()
	if c == nil {
		return Cycle{}, false
	}
	return *c, true
}

// LastResult returns the counters of the most recent finished cycle.
func (o *Orchestrator) LastResult() (CheckResult, bool) {
	c, ok := o.LastCycle()
	return c.Result, ok
}

// Run executes one cycle. It never fails: every collaborator error is
// counted in CheckResult.Errors and the cycle moves on.
func (o *Orchestrator) Run(ctx context.Context) CheckResult {
	id := uuid.NewString()
	started := o.now()
	log := o.log.With(logx.String("cycle_id", id))
	var t tally

	users, err := o.listUsers(ctx)
	switch {
	case err != nil:
		t.errors.Add(1)
		log.Error("list users failed",
			logx.String("boundary", "preferences"),
			logx.String("kind", string(preferences.KindOf(err))),
			logx.Err(err),
		)
	case len(users) == 0:
		log.Info("no users to check")
	default:
		log.Info("Starting check cycle", logx.Int("users", len(users)))
		o.checkUsers(ctx, id, log, users, &t)
	}

	res := t.result()
	finished := o.now()
	c := &Cycle{ID: id, StartedAt: started, FinishedAt: finished, Result: res, Elapsed: finished.Sub(started)}
	o.last.Store(c)
	log.Info("Check cycle complete",
		logx.Int("users_checked", res.users),
		logx.Int("routes_searched", res.routes),
		logx.Int("flights_found", res.flights),
		logx.Int("deals_matched", res.deals),
		logx.Int("notifications_sent", res.notifications),
		logx.Int("errors", res.errors),
		logx.Duration("elapsed", c.Elapsed),
	)
	o.publish(EventCycleCompleted, *c)
	return res
}

func (o *Orchestrator) listUsers(ctx context.Context) (users []int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			users, err = nil, fmt.Errorf("list users panicked: %v", r)
			o.log.Error("list users panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	return o.prefs.ListUsers(ctx)
}

func (o *Orchestrator) checkUsers(ctx context.Context, id string, log logx.Logger, users []int64, t *tally) {
	if o.workers < 2 || len(users) < 2 {
		for _, chatID := range users {
			o.checkUser(ctx, id, log, chatID, t)
		}
		return
	}

	workers := min(o.workers, len(users))
	sup := supervisor.NewSupervisor(ctx, supervisor.WithLogger(log))
	jobs := make(chan int64)
	for i := range workers {
		sup.Go0(fmt.Sprintf("check.worker.%d", i), func(ctx context.Context) {
			for chatID := range jobs {
				o.checkUser(ctx, id, log, chatID, t)
			}
		})
	}
	for _, chatID := range users {
		jobs <- chatID
	}
	close(jobs)
	// Workers always drain jobs, so Wait returns once the last user is done.
	_ = sup.Wait(context.Background())
	sup.Cancel()
}

func (o *Orchestrator) checkUser(ctx context.Context, id string, log logx.Logger, chatID int64, t *tally) {
	log = log.With(logx.Int64("chat_id", chatID))
	defer func() {
		if r := recover(); r != nil {
			t.errors.Add(1)
			log.Error("user check panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	prefs, err := o.prefs.Load(ctx, chatID)
	if err != nil {
		t.errors.Add(1)
		log.Error("load preferences failed",
			logx.String("boundary", "preferences"),
			logx.String("kind", string(preferences.KindOf(err))),
			logx.Err(err),
		)
		return
	}
	t.users.Add(1)

	for _, route := range prefs.Routes {
		t.routes.Add(1)
		req := search.ForRoute(route, prefs)
		raws, err := o.provider.Search(ctx, req)
		if err != nil {
			t.errors.Add(1)
			log.Error("flight search failed",
				logx.String("boundary", "search"),
				logx.String("kind", string(search.KindOf(err))),
				logx.String("route", route.String()),
				logx.Err(err),
			)
			continue
		}
		t.flights.Add(int64(len(raws)))
		log.Debug("flights found", logx.String("route", route.String()), logx.Int("count", len(raws)))

		for i, raw := range raws {
			fo, err := offer.Map(raw)
			if err != nil {
				t.errors.Add(1)
				log.Error("offer mapping failed",
					logx.String("boundary", "mapper"),
					logx.String("route", route.String()),
					logx.Int("index", i),
					logx.Err(err),
				)
				continue
			}
			m := rules.Evaluate(fo, prefs)
			if !m.IsMatch() {
				log.Debug("offer rejected", logx.String("offer_id", fo.ID), logx.Any("failed", m.Failed()))
				continue
			}
			t.deals.Add(1)
			log.Info("deal matched", logx.String("offer_id", fo.ID), logx.String("total", fo.Price.Total.String()))

			sent := true
			if err := o.sink.SendDeal(ctx, chatID, fo, m); err != nil {
				sent = false
				t.errors.Add(1)
				log.Error("notification failed",
					logx.String("boundary", "notify"),
					logx.String("kind", string(notify.KindOf(err))),
					logx.String("offer_id", fo.ID),
					logx.Err(err),
				)
			} else {
				t.notifications.Add(1)
			}
			o.publish(EventDealMatched, DealMatched{
				CycleID:  id,
				ChatID:   chatID,
				OfferID:  fo.ID,
				Total:    fo.Price.Total.String(),
				Currency: fo.Price.Currency,
				Sent:     sent,
			})
		}
	}
}

func (o *Orchestrator) publish(typ string, data any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(eventbus.Event{Type: typ, Time: o.now(), Data: data})
}

package eventbus

import (
	"testing"
	"time"
)

func TestPublishFansOutAndFilters(t *testing.T) {
	t.Parallel()
	b := New()
	all, unsubAll := b.Subscribe(4)
	defer unsubAll()
	checks, unsubChecks := b.Subscribe(4, "check.")
	defer unsubChecks()

	b.Publish(Event{Type: "scheduler.run_started"})
	b.Publish(Event{Type: "check.cycle_completed", Data: 3})

	if got := (<-all).Type; got != "scheduler.run_started" {
		t.Fatalf("all[0] = %q", got)
	}
	if got := (<-all).Type; got != "check.cycle_completed" {
		t.Fatalf("all[1] = %q", got)
	}
	e := <-checks
	if e.Type != "check.cycle_completed" || e.Data != 3 {
		t.Fatalf("checks[0] = %+v", e)
	}
	if e.Time.IsZero() {
		t.Fatal("Publish should stamp the event time")
	}
	select {
	case e := <-checks:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestFullBufferDrops(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"})
	if got := b.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}
	if got := (<-ch).Type; got != "a" {
		t.Fatalf("kept %q, want the first event", got)
	}
}

func TestUnsubscribeClosesOnce(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	b.Publish(Event{Type: "after"})
}

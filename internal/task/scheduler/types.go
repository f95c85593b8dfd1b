package scheduler

import (
	"context"
	"time"
)

// Config controls the runner.
type Config struct {
	// Schedule is any form accepted by ParseSchedule.
	Schedule string
	Timezone string // IANA TZ, e.g. "Europe/Berlin"; empty means Local
	// RunOnStart triggers one run before the first scheduled one.
	RunOnStart bool
}

// Job is the scheduled unit of work. Its error is recorded, never retried.
type Job func(ctx context.Context) error

// Clock abstracts time for the trigger loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Event types published on the bus.
const (
	EventRunStarted  = "scheduler.run_started"
	EventRunFinished = "scheduler.run_finished"
)

// RunInfo is the payload of scheduler events.
type RunInfo struct {
	Name     string        `json:"name"`
	Run      uint64        `json:"run"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      string        `json:"err,omitempty"`
}

// Snapshot is a point-in-time view of the runner.
type Snapshot struct {
	Name         string        `json:"name"`
	Spec         string        `json:"spec"`
	Timezone     string        `json:"timezone"`
	Running      bool          `json:"running"`
	Runs         uint64        `json:"runs"`
	Failures     uint64        `json:"failures"`
	LastStart    time.Time     `json:"last_start"`
	LastEnd      time.Time     `json:"last_end"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	Next         time.Time     `json:"next"`
}

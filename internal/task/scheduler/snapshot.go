package scheduler

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Name:         r.name,
		Spec:         r.spec.String(),
		Timezone:     r.loc.String(),
		Running:      r.running,
		Runs:         r.runs.Load(),
		Failures:     r.failures.Load(),
		LastStart:    r.lastStart,
		LastEnd:      r.lastEnd,
		LastDuration: r.lastEnd.Sub(r.lastStart),
		LastError:    r.lastErr,
		Next:         r.next,
	}
}

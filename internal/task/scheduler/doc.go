// Package scheduler triggers the deal-check job on a cron or interval
// schedule. Only one run is in flight at a time; the next trigger is
// computed after the previous run finishes.
package scheduler

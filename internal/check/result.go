package check

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// CheckResult summarizes one cycle. The zero value is the empty cycle.
type CheckResult struct {
	users         int
	routes        int
	flights       int
	deals         int
	notifications int
	errors        int
}

func (r CheckResult) UsersChecked() int      { return r.users }
func (r CheckResult) RoutesSearched() int    { return r.routes }
func (r CheckResult) FlightsFound() int      { return r.flights }
func (r CheckResult) DealsMatched() int      { return r.deals }
func (r CheckResult) NotificationsSent() int { return r.notifications }
func (r CheckResult) Errors() int            { return r.errors }

func (r CheckResult) String() string {
	return fmt.Sprintf("users=%d, routes=%d, flights=%d, deals=%d, notifications=%d, errors=%d",
		r.users, r.routes, r.flights, r.deals, r.notifications, r.errors)
}

func (r CheckResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UsersChecked      int `json:"users_checked"`
		RoutesSearched    int `json:"routes_searched"`
		FlightsFound      int `json:"flights_found"`
		DealsMatched      int `json:"deals_matched"`
		NotificationsSent int `json:"notifications_sent"`
		Errors            int `json:"errors"`
	}{r.users, r.routes, r.flights, r.deals, r.notifications, r.errors})
}

// tally is the mutable side of a cycle, shared by workers.
type tally struct {
	users         atomic.Int64
	routes        atomic.Int64
	flights       atomic.Int64
	deals         atomic.Int64
	notifications atomic.Int64
	errors        atomic.Int64
}

func (t *tally) result() CheckResult {
	return CheckResult{
		users:         int(t.users.Load()),
		routes:        int(t.routes.Load()),
		flights:       int(t.flights.Load()),
		deals:         int(t.deals.Load()),
		notifications: int(t.notifications.Load()),
		errors:        int(t.errors.Load()),
	}
}

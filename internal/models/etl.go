package models

import "time"

// ETL run trigger constants
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerCLI       = "cli"
)

// ETL run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// SourceResult summarizes one vendor's portion of an ETL run.
type SourceResult struct {
	Source        string `json:"source"`
	RoundsCreated int    `json:"rounds_created"`
	RoundsUpdated int    `json:"rounds_updated"`
	Skipped       bool   `json:"skipped"` // No credentials for this vendor
	Error         string `json:"error,omitempty"`
}

// ETLRun records one execution of the ETL pipeline across all active users.
type ETLRun struct {
	ID             string         `json:"id"` // run_{uuid}
	Trigger        string         `json:"trigger"`
	Status         string         `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	UsersProcessed int            `json:"users_processed"`
	UsersSkipped   int            `json:"users_skipped"` // Active users with no tracker credentials
	RoundsCreated  int            `json:"rounds_created"`
	RoundsUpdated  int            `json:"rounds_updated"`
	SourceCounts   map[string]int `json:"source_counts,omitempty"` // Rounds loaded per vendor
	Errors         []string       `json:"errors,omitempty"`
}

// Duration returns the elapsed run time, using now for runs still in flight.
func (r *ETLRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// AddError appends a per-user/source failure without stopping the run.
func (r *ETLRun) AddError(err string) {
	r.Errors = append(r.Errors, err)
}

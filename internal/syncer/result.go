package syncer

import (
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/reconcile"
)

// SyncResult is the outbound summary contract for one sync run.
type SyncResult struct {
	Adapter    string    `json:"adapter"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	Failed         int `json:"failed"`
	SkippedInvalid int `json:"skipped_invalid"`
	NotAttempted   int `json:"not_attempted"`
	Geocoded       int `json:"geocoded"`
	Unresolved     int `json:"unresolved"`

	Errors []reconcile.RecordError `json:"errors,omitempty"`
}

// Duration returns the wall-clock length of the run.
func (r SyncResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *SyncResult) absorb(counts reconcile.Counts) {
	r.Created += counts.Created
	r.Updated += counts.Updated
	r.Unchanged += counts.Unchanged
	r.Failed += counts.Failed
	r.NotAttempted += counts.NotAttempted
	r.Errors = append(r.Errors, counts.Errors...)
}

// HistoricalResult summarizes one historical import across all of an
// adapter's import units.
type HistoricalResult struct {
	Adapter    string       `json:"adapter"`
	Success    bool         `json:"success"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Units      []UnitResult `json:"units"`
}

// UnitResult is the per-election slice of a historical import.
type UnitResult struct {
	ElectionDate string `json:"election_date"`
	ElectionName string `json:"election_name"`
	ElectionID   uint   `json:"election_id,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`

	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	Failed         int `json:"failed"`
	SkippedInvalid int `json:"skipped_invalid"`
}

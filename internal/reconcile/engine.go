package reconcile

import (
	"context"
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Store is the slice of the persisted store the engine needs. The gorm
// implementation lives in internal/locations; tests use in-memory fakes.
type Store interface {
	GetPollingPlace(id string) (*locations.PollingPlace, error)
	UpsertPollingPlace(pp *locations.PollingPlace) error
	GetPrecinct(id string) (*locations.Precinct, error)
	UpsertPrecinct(p *locations.Precinct) error
	AppendAssignment(a *locations.PrecinctAssignment) error
	ListAssignments(precinctID string) ([]locations.PrecinctAssignment, error)
}

// RecordError identifies one record that failed during reconciliation.
type RecordError struct {
	RecordRef string `json:"record_ref"`
	Reason    string `json:"reason"`
}

// Counts summarizes one reconciliation pass. Per-record failures are
// counted and collected, never propagated; NotAttempted covers records the
// sync budget ran out before reaching.
type Counts struct {
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Unchanged    int           `json:"unchanged"`
	Failed       int           `json:"failed"`
	NotAttempted int           `json:"not_attempted"`
	Errors       []RecordError `json:"errors,omitempty"`
}

// Add accumulates another pass into this one.
func (c *Counts) Add(other Counts) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Unchanged += other.Unchanged
	c.Failed += other.Failed
	c.NotAttempted += other.NotAttempted
	c.Errors = append(c.Errors, other.Errors...)
}

func (c *Counts) fail(ref string, err error) {
	c.Failed++
	c.Errors = append(c.Errors, RecordError{RecordRef: ref, Reason: err.Error()})
}

// AssignmentScope carries the effective date and optional election for one
// batch of precinct assignments. A zero EffectiveDate means "sync time".
type AssignmentScope struct {
	ElectionID    *uint
	EffectiveDate time.Time
}

// Engine reconciles freshly fetched records against the persisted store
// for one adapter. Ids are namespaced by adapter, so two engines for
// different adapters can never contend on the same row.
type Engine struct {
	store  Store
	source string
	now    func() time.Time
}

func NewEngine(store Store, source string) *Engine {
	return &Engine{store: store, source: source, now: time.Now}
}

// ReconcilePollingPlaces upserts each record by id: create when absent,
// update when any mutable field differs, no write at all when identical.
// Incoming nil coordinates never clear stored ones.
func (e *Engine) ReconcilePollingPlaces(ctx context.Context, recs []sources.PollingPlaceRecord) Counts {
	var counts Counts
	for i, rec := range recs {
		if ctx.Err() != nil {
			counts.NotAttempted += len(recs) - i
			break
		}

		existing, err := e.store.GetPollingPlace(rec.ID)
		if err != nil {
			counts.fail(rec.ID, err)
			continue
		}

		if existing == nil {
			pp := newPollingPlace(rec, e.source)
			if err := e.store.UpsertPollingPlace(pp); err != nil {
				counts.fail(rec.ID, err)
				continue
			}
			counts.Created++
			continue
		}

		if !applyPollingPlace(existing, rec) {
			counts.Unchanged++
			continue
		}
		if err := e.store.UpsertPollingPlace(existing); err != nil {
			counts.fail(rec.ID, err)
			continue
		}
		counts.Updated++
	}
	return counts
}

// ReconcilePrecincts runs the per-precinct assignment state machine.
// Duplicate rows for the same precinct within one batch collapse to a
// single transition.
func (e *Engine) ReconcilePrecincts(ctx context.Context, recs []sources.PrecinctRecord, scope AssignmentScope) Counts {
	effective := scope.EffectiveDate
	if effective.IsZero() {
		effective = e.now()
	}
	effective = effective.Truncate(24 * time.Hour)

	var counts Counts
	seen := make(map[string]bool)
	for i, rec := range recs {
		if ctx.Err() != nil {
			counts.NotAttempted += len(recs) - i
			break
		}
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		existing, err := e.store.GetPrecinct(rec.ID)
		if err != nil {
			counts.fail(rec.ID, err)
			continue
		}

		if existing == nil {
			if err := e.createPrecinct(rec, effective, scope.ElectionID); err != nil {
				counts.fail(rec.ID, err)
				continue
			}
			counts.Created++
			continue
		}

		fieldsChanged := applyPrecinct(existing, rec)
		moved, err := e.reconcileAssignment(existing, rec.PollingPlaceID, effective, scope.ElectionID)
		if err != nil {
			counts.fail(rec.ID, err)
			continue
		}

		if !fieldsChanged && !moved {
			counts.Unchanged++
			continue
		}
		if err := e.store.UpsertPrecinct(existing); err != nil {
			counts.fail(rec.ID, err)
			continue
		}
		counts.Updated++
	}
	return counts
}

func (e *Engine) createPrecinct(rec sources.PrecinctRecord, effective time.Time, electionID *uint) error {
	p := newPrecinct(rec, e.source)
	if rec.PollingPlaceID != "" {
		placeID := rec.PollingPlaceID
		p.CurrentPollingPlaceID = &placeID
		changed := effective
		p.LastChangeDate = &changed
	}
	if err := e.store.UpsertPrecinct(p); err != nil {
		return err
	}
	if rec.PollingPlaceID == "" {
		return nil
	}
	return e.store.AppendAssignment(&locations.PrecinctAssignment{
		PrecinctID:     p.ID,
		PollingPlaceID: rec.PollingPlaceID,
		ElectionID:     electionID,
		AssignedDate:   effective,
	})
}

// reconcileAssignment decides whether the precinct's history gets a new
// entry and whether the current pointer moves. The pointer always tracks
// the entry with the latest effective date: backfilling an older election
// inserts history in its chronological slot without touching the pointer.
func (e *Engine) reconcileAssignment(p *locations.Precinct, placeID string, effective time.Time, electionID *uint) (bool, error) {
	if placeID == "" {
		return false, nil
	}

	entries, err := e.store.ListAssignments(p.ID)
	if err != nil {
		return false, err
	}

	if len(entries) == 0 {
		if err := e.store.AppendAssignment(&locations.PrecinctAssignment{
			PrecinctID:     p.ID,
			PollingPlaceID: placeID,
			ElectionID:     electionID,
			AssignedDate:   effective,
		}); err != nil {
			return false, err
		}
		id := placeID
		changed := effective
		p.CurrentPollingPlaceID = &id
		p.LastChangeDate = &changed
		return true, nil
	}

	latest := entries[len(entries)-1]

	if !effective.Before(latest.AssignedDate) {
		// Forward path: repeated identical syncs append nothing.
		if latest.PollingPlaceID == placeID {
			return false, nil
		}
		prev := latest.PollingPlaceID
		if err := e.store.AppendAssignment(&locations.PrecinctAssignment{
			PrecinctID:             p.ID,
			PollingPlaceID:         placeID,
			PreviousPollingPlaceID: &prev,
			ElectionID:             electionID,
			AssignedDate:           effective,
		}); err != nil {
			return false, err
		}
		id := placeID
		changed := effective
		p.CurrentPollingPlaceID = &id
		p.LastChangeDate = &changed
		return true, nil
	}

	// Backfill path: find the entry that was effective at this date.
	var prior *locations.PrecinctAssignment
	for i := range entries {
		if !entries[i].AssignedDate.After(effective) {
			prior = &entries[i]
		}
	}
	if prior != nil && prior.PollingPlaceID == placeID {
		// Re-importing the same historical assignment is a no-op.
		return false, nil
	}
	if prior == nil && entries[0].PollingPlaceID == placeID {
		// Predates all known history but agrees with the earliest entry;
		// appending would record a transition that never happened.
		return false, nil
	}

	entry := locations.PrecinctAssignment{
		PrecinctID:     p.ID,
		PollingPlaceID: placeID,
		ElectionID:     electionID,
		AssignedDate:   effective,
	}
	if prior != nil {
		prev := prior.PollingPlaceID
		entry.PreviousPollingPlaceID = &prev
	}
	if err := e.store.AppendAssignment(&entry); err != nil {
		return false, err
	}
	return true, nil
}

package locations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store wraps the gorm connection with the operations the reconciliation
// engine and sync orchestrator need. Every write is its own transaction so
// a failure on one record never poisons the rest of a sync batch.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetPollingPlace returns the record or nil when absent.
func (s *Store) GetPollingPlace(id string) (*PollingPlace, error) {
	var pp PollingPlace
	err := s.db.First(&pp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get polling place %s: %w", id, err)
	}
	return &pp, nil
}

func (s *Store) UpsertPollingPlace(pp *PollingPlace) error {
	if err := s.db.Save(pp).Error; err != nil {
		return fmt.Errorf("upsert polling place %s: %w", pp.ID, err)
	}
	return nil
}

// ListPollingPlacesBySource returns every polling place owned by the given
// adapter. The orchestrator diffs addresses against it to decide what
// needs (re-)geocoding.
func (s *Store) ListPollingPlacesBySource(source string) ([]PollingPlace, error) {
	var pps []PollingPlace
	if err := s.db.Where("source_plugin = ?", source).Find(&pps).Error; err != nil {
		return nil, fmt.Errorf("list polling places for %s: %w", source, err)
	}
	return pps, nil
}

// GetPrecinct returns the record or nil when absent.
func (s *Store) GetPrecinct(id string) (*Precinct, error) {
	var p Precinct
	err := s.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get precinct %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) UpsertPrecinct(p *Precinct) error {
	if err := s.db.Save(p).Error; err != nil {
		return fmt.Errorf("upsert precinct %s: %w", p.ID, err)
	}
	return nil
}

// AppendAssignment inserts one history entry. Entries are append-only;
// updates and deletes never happen through the sync path.
func (s *Store) AppendAssignment(a *PrecinctAssignment) error {
	if err := s.db.Create(a).Error; err != nil {
		return fmt.Errorf("append assignment for %s: %w", a.PrecinctID, err)
	}
	return nil
}

// ListAssignments returns the precinct's history ordered by effective
// date, oldest first.
func (s *Store) ListAssignments(precinctID string) ([]PrecinctAssignment, error) {
	var entries []PrecinctAssignment
	err := s.db.
		Where("precinct_id = ?", precinctID).
		Order("assigned_date ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list assignments for %s: %w", precinctID, err)
	}
	return entries, nil
}

// GetOrCreateElection looks up the (date, state) election or creates it.
func (s *Store) GetOrCreateElection(state string, date time.Time, electionType, name string) (*Election, error) {
	var e Election
	err := s.db.Where("state = ? AND date = ?", state, date).First(&e).Error
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup election %s %s: %w", state, date.Format("2006-01-02"), err)
	}

	e = Election{Date: date, State: state, Name: name, ElectionType: electionType}
	if err := s.db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create election %s %s: %w", state, date.Format("2006-01-02"), err)
	}
	return &e, nil
}

func (s *Store) ListElections(state string) ([]Election, error) {
	q := s.db.Order("date ASC")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var elections []Election
	if err := q.Find(&elections).Error; err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	return elections, nil
}

// SyncState returns the adapter's persisted sync bookkeeping, or a fresh
// zero row when the adapter has never synced.
func (s *Store) SyncState(source string) (*SourceSyncState, error) {
	var st SourceSyncState
	err := s.db.First(&st, "source_name = ?", source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &SourceSyncState{SourceName: source}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state for %s: %w", source, err)
	}
	return &st, nil
}

func (s *Store) SaveSyncState(st *SourceSyncState) error {
	if err := s.db.Save(st).Error; err != nil {
		return fmt.Errorf("save sync state for %s: %w", st.SourceName, err)
	}
	return nil
}

// AssignmentAudit summarizes history integrity for the operator surface.
type AssignmentAudit struct {
	TotalAssignments       int64 `json:"total_assignments"`
	ElectionScoped         int64 `json:"election_scoped"`
	WithoutElection        int64 `json:"without_election"`
	OrphanedAssignments    int64 `json:"orphaned_assignments"`
	PrecinctsWithoutPlaces int64 `json:"precincts_without_assignment"`
}

// AuditAssignments computes the integrity report across all history rows.
func (s *Store) AuditAssignments() (*AssignmentAudit, error) {
	var audit AssignmentAudit

	if err := s.db.Model(&PrecinctAssignment{}).Count(&audit.TotalAssignments).Error; err != nil {
		return nil, fmt.Errorf("audit assignments: %w", err)
	}
	if err := s.db.Model(&PrecinctAssignment{}).Where("election_id IS NOT NULL").Count(&audit.ElectionScoped).Error; err != nil {
		return nil, fmt.Errorf("audit assignments: %w", err)
	}
	audit.WithoutElection = audit.TotalAssignments - audit.ElectionScoped

	err := s.db.Model(&PrecinctAssignment{}).
		Joins("LEFT JOIN locations.precincts p ON p.id = precinct_assignments.precinct_id").
		Where("p.id IS NULL").
		Count(&audit.OrphanedAssignments).Error
	if err != nil {
		return nil, fmt.Errorf("audit assignments: %w", err)
	}

	err = s.db.Model(&Precinct{}).
		Where("current_polling_place_id IS NULL").
		Count(&audit.PrecinctsWithoutPlaces).Error
	if err != nil {
		return nil, fmt.Errorf("audit assignments: %w", err)
	}

	return &audit, nil
}

// ListPollingPlaces supports the read API with optional filters.
func (s *Store) ListPollingPlaces(state, source string, limit, offset int) ([]PollingPlace, error) {
	q := s.db.Order("id ASC")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if source != "" {
		q = q.Where("source_plugin = ?", source)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var pps []PollingPlace
	if err := q.Find(&pps).Error; err != nil {
		return nil, fmt.Errorf("list polling places: %w", err)
	}
	return pps, nil
}

// ListPrecincts supports the read API with optional filters.
// changedOnly keeps precincts whose assignment changed within the window.
func (s *Store) ListPrecincts(state string, changedOnly bool, limit, offset int) ([]Precinct, error) {
	q := s.db.Order("id ASC")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if changedOnly {
		cutoff := time.Now().AddDate(0, -recentChangeWindow, 0)
		q = q.Where("last_change_date >= ?", cutoff)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var ps []Precinct
	if err := q.Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("list precincts: %w", err)
	}
	return ps, nil
}

package locations

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PollingPlace is a physical voting location, modeled on the VIP
// specification. The id is derived deterministically by the adapter from
// locality + sequence, so re-fetching the same upstream entry always
// upserts the same row. Rows are never hard-deleted by a sync.
type PollingPlace struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null"`
	LocationName string `json:"location_name,omitempty"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	AddressLine3 string `json:"address_line3,omitempty"`
	City         string `json:"city" gorm:"not null"`
	State        string `json:"state" gorm:"type:varchar(2);not null;index"`
	ZipCode      string `json:"zip_code" gorm:"not null"`
	County       string `json:"county,omitempty"`

	// WGS 84 decimal degrees, nil until geocoded.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	PollingHours  string         `json:"polling_hours,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	VoterServices pq.StringArray `json:"voter_services,omitempty" gorm:"type:text[]"`

	StartDate *time.Time `json:"start_date,omitempty" gorm:"type:date"`
	EndDate   *time.Time `json:"end_date,omitempty" gorm:"type:date"`

	// Provenance
	SourceState  string `json:"source_state" gorm:"type:varchar(3)"`
	SourcePlugin string `json:"source_plugin" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PollingPlace) TableName() string { return "locations.polling_places" }

// AddressKey returns the normalized postal-address key for this record,
// comparable with the adapter-side key so the sync can tell whether an
// address actually changed.
func (pp PollingPlace) AddressKey() string {
	parts := []string{pp.AddressLine1, pp.AddressLine2, pp.AddressLine3, pp.City, pp.State, pp.ZipCode}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
	}
	return strings.Join(parts, "|")
}

// Precinct is a voting district tracking its current polling place
// assignment. CurrentPollingPlaceID is a weak reference; history lives in
// PrecinctAssignment.
type Precinct struct {
	ID               string `json:"id" gorm:"primaryKey"`
	Name             string `json:"name" gorm:"not null"`
	State            string `json:"state" gorm:"type:varchar(2);not null;index"`
	County           string `json:"county,omitempty"`
	PrecinctCode     string `json:"precinct_code,omitempty"`
	RegisteredVoters *int   `json:"registered_voters,omitempty"`

	CurrentPollingPlaceID *string    `json:"current_polling_place_id"`
	LastChangeDate        *time.Time `json:"last_change_date,omitempty" gorm:"type:date"`

	// ChangedRecently is derived on read, never persisted, so it stays
	// correct as rows age across the 6-month boundary.
	ChangedRecently bool `json:"changed_recently" gorm:"-"`

	SourcePlugin string `json:"source_plugin" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Precinct) TableName() string { return "locations.precincts" }

// recentChangeWindow is the trailing window for the changed_recently flag.
const recentChangeWindow = 6 // months

// ChangedWithinWindow reports whether the precinct's assignment changed
// within the trailing 6-month window ending at now.
func (p *Precinct) ChangedWithinWindow(now time.Time) bool {
	if p.LastChangeDate == nil {
		return false
	}
	return !p.LastChangeDate.Before(now.AddDate(0, -recentChangeWindow, 0))
}

// AfterFind derives ChangedRecently whenever a precinct is loaded.
func (p *Precinct) AfterFind(_ *gorm.DB) error {
	p.ChangedRecently = p.ChangedWithinWindow(time.Now())
	return nil
}

// PrecinctAssignment is one append-only entry of the precinct's assignment
// history. The entry with the latest AssignedDate determines the
// precinct's current polling place.
type PrecinctAssignment struct {
	ID                     uint    `json:"id" gorm:"primaryKey"`
	PrecinctID             string  `json:"precinct_id" gorm:"not null;index"`
	PollingPlaceID         string  `json:"polling_place_id" gorm:"not null"`
	PreviousPollingPlaceID *string `json:"previous_polling_place_id,omitempty"`

	// ElectionID links election-scoped assignments; nil for general syncs.
	ElectionID *uint `json:"election_id,omitempty" gorm:"index"`

	AssignedDate time.Time `json:"assigned_date" gorm:"type:date;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PrecinctAssignment) TableName() string { return "locations.precinct_assignments" }

// Election groups assignments for one voting event. Unique per (date,
// state) so repeated historical imports reuse the same row.
type Election struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Date         time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:elections_date_state"`
	State        string    `json:"state" gorm:"type:varchar(2);not null;uniqueIndex:elections_date_state"`
	Name         string    `json:"name" gorm:"not null"`
	ElectionType string    `json:"election_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Election) TableName() string { return "locations.elections" }

// SourceSyncState is per-adapter sync bookkeeping, keyed by adapter name
// in the store rather than held in process memory.
type SourceSyncState struct {
	SourceName string     `json:"source_name" gorm:"primaryKey"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	SyncCount  int        `json:"sync_count"`
	ErrorCount int        `json:"error_count"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (SourceSyncState) TableName() string { return "locations.source_sync_states" }

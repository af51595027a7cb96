package locations

import (
	"log"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/db"
)

var defaultStore *Store

func Init() *Store {
	// Ensure the locations schema exists
	if err := db.EnsureSchema(db.DB, "locations"); err != nil {
		log.Fatal("Failed to ensure schema locations: ", err)
	}

	if err := db.DB.AutoMigrate(
		&PollingPlace{},
		&Precinct{},
		&PrecinctAssignment{},
		&Election{},
		&SourceSyncState{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	// Assignment history is read oldest-first per precinct.
	if err := db.DB.Exec(`
        CREATE INDEX IF NOT EXISTS precinct_assignments_precinct_date
        ON locations.precinct_assignments (precinct_id, assigned_date, id);
    `).Error; err != nil {
		log.Fatal("Failed to create precinct_assignments_precinct_date", err)
	}

	defaultStore = NewStore(db.DB)
	return defaultStore
}

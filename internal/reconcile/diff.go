package reconcile

import (
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

func newPollingPlace(rec sources.PollingPlaceRecord, source string) *locations.PollingPlace {
	return &locations.PollingPlace{
		ID:            rec.ID,
		Name:          rec.Name,
		LocationName:  rec.LocationName,
		AddressLine1:  rec.AddressLine1,
		AddressLine2:  rec.AddressLine2,
		AddressLine3:  rec.AddressLine3,
		City:          rec.City,
		State:         rec.State,
		ZipCode:       rec.ZipCode,
		County:        rec.County,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		PollingHours:  rec.PollingHours,
		Notes:         rec.Notes,
		VoterServices: rec.VoterServices,
		StartDate:     rec.StartDate,
		EndDate:       rec.EndDate,
		SourceState:   rec.State,
		SourcePlugin:  source,
	}
}

// applyPollingPlace copies every mutable field from the incoming record
// onto the stored model, reporting whether anything actually changed. A
// false return means the sync must not write the row at all.
func applyPollingPlace(pp *locations.PollingPlace, rec sources.PollingPlaceRecord) bool {
	changed := false

	setStr := func(dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = true
		}
	}
	setStr(&pp.Name, rec.Name)
	setStr(&pp.LocationName, rec.LocationName)
	setStr(&pp.AddressLine1, rec.AddressLine1)
	setStr(&pp.AddressLine2, rec.AddressLine2)
	setStr(&pp.AddressLine3, rec.AddressLine3)
	setStr(&pp.City, rec.City)
	setStr(&pp.State, rec.State)
	setStr(&pp.ZipCode, rec.ZipCode)
	setStr(&pp.County, rec.County)
	setStr(&pp.PollingHours, rec.PollingHours)
	setStr(&pp.Notes, rec.Notes)

	if !stringSlicesEqual(pp.VoterServices, rec.VoterServices) {
		pp.VoterServices = rec.VoterServices
		changed = true
	}

	// Incoming nil coordinates preserve stored ones: a source that stopped
	// publishing coordinates must not wipe geocoded values.
	if rec.Latitude != nil && !floatPtrEqual(pp.Latitude, rec.Latitude) {
		pp.Latitude = rec.Latitude
		changed = true
	}
	if rec.Longitude != nil && !floatPtrEqual(pp.Longitude, rec.Longitude) {
		pp.Longitude = rec.Longitude
		changed = true
	}

	if !timePtrEqual(pp.StartDate, rec.StartDate) {
		pp.StartDate = rec.StartDate
		changed = true
	}
	if !timePtrEqual(pp.EndDate, rec.EndDate) {
		pp.EndDate = rec.EndDate
		changed = true
	}

	return changed
}

func newPrecinct(rec sources.PrecinctRecord, source string) *locations.Precinct {
	return &locations.Precinct{
		ID:               rec.ID,
		Name:             rec.Name,
		State:            rec.State,
		County:           rec.County,
		PrecinctCode:     rec.PrecinctCode,
		RegisteredVoters: rec.RegisteredVoters,
		SourcePlugin:     source,
	}
}

// applyPrecinct copies mutable precinct fields, leaving assignment state
// to the engine. Incoming nil voter counts preserve stored ones.
func applyPrecinct(p *locations.Precinct, rec sources.PrecinctRecord) bool {
	changed := false

	setStr := func(dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = true
		}
	}
	setStr(&p.Name, rec.Name)
	setStr(&p.State, rec.State)
	setStr(&p.County, rec.County)
	if rec.PrecinctCode != "" {
		setStr(&p.PrecinctCode, rec.PrecinctCode)
	}

	if rec.RegisteredVoters != nil {
		if p.RegisteredVoters == nil || *p.RegisteredVoters != *rec.RegisteredVoters {
			p.RegisteredVoters = rec.RegisteredVoters
			changed = true
		}
	}

	return changed
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

package sources

import (
	"strings"
	"time"
)

// PollingPlaceRecord is the normalized shape every adapter produces for a
// physical voting location, loosely following the VIP specification.
// Coordinates may be left nil; the sync pipeline geocodes them later.
type PollingPlaceRecord struct {
	ID           string
	Name         string
	LocationName string
	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	City         string
	State        string
	ZipCode      string
	County       string

	Latitude  *float64
	Longitude *float64

	PollingHours  string
	Notes         string
	VoterServices []string

	StartDate *time.Time
	EndDate   *time.Time
}

// AddressKey returns a normalized key for the record's postal address.
// The geocoding resolver deduplicates on it and the orchestrator uses it
// to decide whether an address actually changed between syncs.
func (r PollingPlaceRecord) AddressKey() string {
	parts := []string{r.AddressLine1, r.AddressLine2, r.AddressLine3, r.City, r.State, r.ZipCode}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
	}
	return strings.Join(parts, "|")
}

// HasCoordinates reports whether the adapter already supplied both
// coordinates, e.g. from an upstream source that publishes them.
func (r PollingPlaceRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// PrecinctRecord is the normalized shape for a voting district, optionally
// carrying an assignment hint to one of the polling places returned by the
// same fetch.
type PrecinctRecord struct {
	ID               string
	Name             string
	State            string
	County           string
	PrecinctCode     string
	RegisteredVoters *int

	// PollingPlaceID is the id of the polling place this precinct should be
	// assigned to, or empty when the source only enriches precinct fields.
	PollingPlaceID string
}

// ImportUnit is one discoverable batch of historical data, usually a
// downloadable file tied to a single past election.
type ImportUnit struct {
	ElectionDate time.Time
	ElectionType string
	ElectionName string
	FileURL      string
	FileDate     string
}

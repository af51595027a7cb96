package sources

import (
	"fmt"
	"regexp"
)

// ValidationError describes why a single record was dropped. Per-row
// failures are counted and reported, never fatal to the fetch.
type ValidationError struct {
	RecordRef string `json:"record_ref"`
	Reason    string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("record %s: %s", e.RecordRef, e.Reason)
}

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true, "GU": true, "VI": true,
	"AS": true, "MP": true,
}

// KnownState reports whether code is a recognized two-letter state or
// territory code.
func KnownState(code string) bool {
	return stateCodes[code]
}

// ValidatePollingPlace checks the structural invariants every adapter must
// satisfy before a record reaches the orchestrator.
func ValidatePollingPlace(r PollingPlaceRecord) error {
	switch {
	case r.ID == "":
		return ValidationError{RecordRef: "(no id)", Reason: "missing id"}
	case r.Name == "":
		return ValidationError{RecordRef: r.ID, Reason: "missing name"}
	case r.City == "":
		return ValidationError{RecordRef: r.ID, Reason: "missing city"}
	case !KnownState(r.State):
		return ValidationError{RecordRef: r.ID, Reason: fmt.Sprintf("unknown state code %q", r.State)}
	case !zipRe.MatchString(r.ZipCode):
		return ValidationError{RecordRef: r.ID, Reason: fmt.Sprintf("invalid zip code %q", r.ZipCode)}
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return ValidationError{RecordRef: r.ID, Reason: fmt.Sprintf("latitude %v out of range", *r.Latitude)}
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return ValidationError{RecordRef: r.ID, Reason: fmt.Sprintf("longitude %v out of range", *r.Longitude)}
	}
	return nil
}

// ValidatePrecinct checks the structural invariants for precinct records.
func ValidatePrecinct(r PrecinctRecord) error {
	switch {
	case r.ID == "":
		return ValidationError{RecordRef: "(no id)", Reason: "missing id"}
	case r.Name == "":
		return ValidationError{RecordRef: r.ID, Reason: "missing name"}
	case !KnownState(r.State):
		return ValidationError{RecordRef: r.ID, Reason: fmt.Sprintf("unknown state code %q", r.State)}
	}
	if r.RegisteredVoters != nil && *r.RegisteredVoters < 0 {
		return ValidationError{RecordRef: r.ID, Reason: "negative registered voter count"}
	}
	return nil
}

// FilterPollingPlaces splits records into valid ones and validation errors.
func FilterPollingPlaces(recs []PollingPlaceRecord) ([]PollingPlaceRecord, []ValidationError) {
	valid := make([]PollingPlaceRecord, 0, len(recs))
	var dropped []ValidationError
	for _, r := range recs {
		if err := ValidatePollingPlace(r); err != nil {
			dropped = append(dropped, err.(ValidationError))
			continue
		}
		valid = append(valid, r)
	}
	return valid, dropped
}

// FilterPrecincts splits precinct records into valid ones and validation
// errors.
func FilterPrecincts(recs []PrecinctRecord) ([]PrecinctRecord, []ValidationError) {
	valid := make([]PrecinctRecord, 0, len(recs))
	var dropped []ValidationError
	for _, r := range recs {
		if err := ValidatePrecinct(r); err != nil {
			dropped = append(dropped, err.(ValidationError))
			continue
		}
		valid = append(valid, r)
	}
	return valid, dropped
}

// Malformed-row sanity threshold: a fetch where more than this share of
// rows fails to parse (and at least minMalformedRows did) is treated as a
// schema change upstream rather than dirty data.
const (
	malformedRowRatio = 0.20
	minMalformedRows  = 10
)

// CheckMalformedRate returns ErrSourceFormat when the malformed-row rate
// exceeds the sanity threshold, protecting against silently importing an
// upstream file whose schema changed shape entirely.
func CheckMalformedRate(malformed, total int) error {
	if total == 0 || malformed < minMalformedRows {
		return nil
	}
	if float64(malformed)/float64(total) > malformedRowRatio {
		return fmt.Errorf("%w: %d of %d rows malformed", ErrSourceFormat, malformed, total)
	}
	return nil
}

package sources_test

import (
	"errors"
	"testing"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

func validPlace() sources.PollingPlaceRecord {
	return sources.PollingPlaceRecord{
		ID:           "VA-FAIRFAX-PP-0001",
		Name:         "Main Street Elementary",
		AddressLine1: "123 Main St",
		City:         "Fairfax",
		State:        "VA",
		ZipCode:      "22030",
	}
}

// TestValidatePollingPlace_Valid verifies a complete record passes.
func TestValidatePollingPlace_Valid(t *testing.T) {
	if err := sources.ValidatePollingPlace(validPlace()); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}
}

// TestValidatePollingPlace_Rejections walks the structural invariants one
// broken field at a time.
func TestValidatePollingPlace_Rejections(t *testing.T) {
	lat := 95.0

	cases := []struct {
		name   string
		mutate func(*sources.PollingPlaceRecord)
	}{
		{"missing id", func(r *sources.PollingPlaceRecord) { r.ID = "" }},
		{"missing name", func(r *sources.PollingPlaceRecord) { r.Name = "" }},
		{"missing city", func(r *sources.PollingPlaceRecord) { r.City = "" }},
		{"unknown state", func(r *sources.PollingPlaceRecord) { r.State = "XX" }},
		{"bad zip", func(r *sources.PollingPlaceRecord) { r.ZipCode = "2203" }},
		{"latitude out of range", func(r *sources.PollingPlaceRecord) { r.Latitude = &lat }},
	}
	for _, tc := range cases {
		rec := validPlace()
		tc.mutate(&rec)
		if err := sources.ValidatePollingPlace(rec); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

// TestValidatePollingPlace_ZipPlusFour verifies ZIP+4 codes are accepted.
func TestValidatePollingPlace_ZipPlusFour(t *testing.T) {
	rec := validPlace()
	rec.ZipCode = "22030-1234"
	if err := sources.ValidatePollingPlace(rec); err != nil {
		t.Errorf("expected ZIP+4 to pass, got %v", err)
	}
}

// TestValidatePrecinct_NegativeVoters verifies negative registered voter
// counts are rejected.
func TestValidatePrecinct_NegativeVoters(t *testing.T) {
	n := -5
	rec := sources.PrecinctRecord{
		ID:               "VA-FAIRFAX-P-101",
		Name:             "101 - CENTERVILLE",
		State:            "VA",
		RegisteredVoters: &n,
	}
	if err := sources.ValidatePrecinct(rec); err == nil {
		t.Error("expected validation error for negative voter count")
	}
}

// TestFilterPollingPlaces verifies malformed records are split out with
// their reasons and the valid ones keep their order.
func TestFilterPollingPlaces(t *testing.T) {
	good := validPlace()
	bad := validPlace()
	bad.ID = "VA-FAIRFAX-PP-0002"
	bad.City = ""

	valid, dropped := sources.FilterPollingPlaces([]sources.PollingPlaceRecord{good, bad})

	if len(valid) != 1 || valid[0].ID != good.ID {
		t.Fatalf("expected only the good record, got %v", valid)
	}
	if len(dropped) != 1 || dropped[0].RecordRef != bad.ID {
		t.Fatalf("expected the bad record in dropped, got %v", dropped)
	}
}

// TestCheckMalformedRate verifies both legs of the threshold: a few bad
// rows pass, but a high malformed share aborts with a format error.
func TestCheckMalformedRate(t *testing.T) {
	if err := sources.CheckMalformedRate(5, 100); err != nil {
		t.Errorf("5%% malformed should pass, got %v", err)
	}
	// High ratio but under the absolute row minimum still passes.
	if err := sources.CheckMalformedRate(4, 10); err != nil {
		t.Errorf("4 of 10 malformed is under the row minimum, got %v", err)
	}
	err := sources.CheckMalformedRate(30, 100)
	if !errors.Is(err, sources.ErrSourceFormat) {
		t.Errorf("30%% malformed should abort with ErrSourceFormat, got %v", err)
	}
}

// TestAddressKey_Normalization verifies whitespace and case do not affect
// the address key while a real address change does.
func TestAddressKey_Normalization(t *testing.T) {
	a := validPlace()
	b := validPlace()
	b.AddressLine1 = "  123  MAIN   st "
	if a.AddressKey() != b.AddressKey() {
		t.Errorf("whitespace/case variants should share a key: %q vs %q", a.AddressKey(), b.AddressKey())
	}

	c := validPlace()
	c.AddressLine1 = "500 Oak Ave"
	if a.AddressKey() == c.AddressKey() {
		t.Error("different addresses should not share a key")
	}
}

// TestRegistry_UnknownSource verifies New reports unknown adapter names
// with the sentinel error.
func TestRegistry_UnknownSource(t *testing.T) {
	_, err := sources.New("no-such-adapter", sources.DefaultConfig())
	if !errors.Is(err, sources.ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

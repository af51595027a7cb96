package dummy_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources/dummy"
)

func newAdapter(t *testing.T, cfg sources.DummyConfig) *dummy.Adapter {
	t.Helper()
	a, err := dummy.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

// TestFetchPollingPlaces_Deterministic verifies the same seed always
// yields the same records, so repeat syncs come back unchanged.
func TestFetchPollingPlaces_Deterministic(t *testing.T) {
	cfg := sources.DummyConfig{Seed: 42, States: []string{"VA", "OH"}, PlacesPerState: 5}

	first, err := newAdapter(t, cfg).FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}
	second, err := newAdapter(t, cfg).FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}

	if len(first) != 10 {
		t.Fatalf("expected 10 places, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs with the same seed should produce identical records")
	}
}

func TestFetchPollingPlaces_RecordShape(t *testing.T) {
	a := newAdapter(t, sources.DummyConfig{Seed: 7, States: []string{"VA"}, PlacesPerState: 3})

	places, err := a.FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}
	for _, p := range places {
		if p.State != "VA" {
			t.Errorf("place %s state = %q", p.ID, p.State)
		}
		if p.Latitude == nil || p.Longitude == nil {
			t.Errorf("place %s has no coordinates; generated data should skip geocoding", p.ID)
		}
		if rejects := sources.ValidatePollingPlace(p); rejects != nil {
			t.Errorf("place %s fails validation: %v", p.ID, rejects)
		}
	}
	if places[0].ID != "VA-00001" {
		t.Errorf("first id = %q", places[0].ID)
	}
}

func TestFetchPrecincts_LinkedToPlaces(t *testing.T) {
	a := newAdapter(t, sources.DummyConfig{Seed: 7, States: []string{"VA"}, PlacesPerState: 3})

	places, err := a.FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}
	precincts, err := a.FetchPrecincts(context.Background())
	if err != nil {
		t.Fatalf("FetchPrecincts: %v", err)
	}
	if len(precincts) < 3*3 {
		t.Fatalf("expected at least 3 precincts per place, got %d", len(precincts))
	}

	known := make(map[string]bool, len(places))
	for _, p := range places {
		known[p.ID] = true
	}
	for _, pr := range precincts {
		if !known[pr.PollingPlaceID] {
			t.Errorf("precinct %s points at unknown place %q", pr.ID, pr.PollingPlaceID)
		}
		if pr.RegisteredVoters == nil || *pr.RegisteredVoters < 500 {
			t.Errorf("precinct %s has implausible voter count", pr.ID)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	a := newAdapter(t, sources.DummyConfig{})

	places, err := a.FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}
	// 50 states at the default 25 places each.
	if len(places) != 50*25 {
		t.Errorf("expected %d places, got %d", 50*25, len(places))
	}
	if a.StateCode() != sources.StateAll {
		t.Errorf("StateCode = %q", a.StateCode())
	}
}

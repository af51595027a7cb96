package syncer_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/syncer"
)

// fakeHistorical serves one canned election per import unit and records
// the order units were fetched in.
type fakeHistorical struct {
	name    string
	units   []sources.ImportUnit
	data    map[string]historicalData
	fetched []string
}

type historicalData struct {
	places    []sources.PollingPlaceRecord
	precincts []sources.PrecinctRecord
	err       error
}

func (f *fakeHistorical) Name() string        { return f.name }
func (f *fakeHistorical) StateCode() string   { return "VA" }
func (f *fakeHistorical) Description() string { return "historical fixture" }

func (f *fakeHistorical) FetchPollingPlaces(ctx context.Context) ([]sources.PollingPlaceRecord, error) {
	return nil, nil
}

func (f *fakeHistorical) ListImportUnits(ctx context.Context) ([]sources.ImportUnit, error) {
	return f.units, nil
}

func (f *fakeHistorical) FetchImportUnit(ctx context.Context, unit sources.ImportUnit) ([]sources.PollingPlaceRecord, []sources.PrecinctRecord, error) {
	key := unit.ElectionDate.Format("2006-01-02")
	f.fetched = append(f.fetched, key)
	d := f.data[key]
	return d.places, d.precincts, d.err
}

func histUnit(date, name, electionType string) sources.ImportUnit {
	d, _ := time.Parse("2006-01-02", date)
	return sources.ImportUnit{ElectionDate: d, ElectionName: name, ElectionType: electionType}
}

func TestRunHistorical_OldestFirst(t *testing.T) {
	src := &fakeHistorical{
		name: "fixture-hist",
		// Deliberately newest-first; the runner must reorder.
		units: []sources.ImportUnit{
			histUnit("2024-11-05", "2024 General Election", "general"),
			histUnit("2024-03-05", "2024 Presidential Primary", "primary"),
			histUnit("2024-06-18", "2024 Primary Election", "primary"),
		},
		data: map[string]historicalData{
			"2024-03-05": {
				places:    []sources.PollingPlaceRecord{placeRecord("VA-X-PP-0001", "1 First St")},
				precincts: []sources.PrecinctRecord{{ID: "VA-X-P-101", Name: "101 - First", State: "VA", PollingPlaceID: "VA-X-PP-0001"}},
			},
			"2024-06-18": {
				places:    []sources.PollingPlaceRecord{placeRecord("VA-X-PP-0001", "1 First St")},
				precincts: []sources.PrecinctRecord{{ID: "VA-X-P-101", Name: "101 - First", State: "VA", PollingPlaceID: "VA-X-PP-0001"}},
			},
			"2024-11-05": {
				places:    []sources.PollingPlaceRecord{placeRecord("VA-X-PP-0002", "2 Second St")},
				precincts: []sources.PrecinctRecord{{ID: "VA-X-P-101", Name: "101 - First", State: "VA", PollingPlaceID: "VA-X-PP-0002"}},
			},
		},
	}
	register(t, src)

	store := newFakeStore()
	runner := syncer.NewRunner(store, &fakeResolver{}, sources.Config{})

	res, err := runner.RunHistorical(context.Background(), src.name)
	if err != nil {
		t.Fatalf("RunHistorical: %v", err)
	}
	if !res.Success {
		t.Fatalf("import not successful: %+v", res.Units)
	}

	wantOrder := []string{"2024-03-05", "2024-06-18", "2024-11-05"}
	if fmt.Sprint(src.fetched) != fmt.Sprint(wantOrder) {
		t.Errorf("fetch order = %v, want %v", src.fetched, wantOrder)
	}

	if len(store.elections) != 3 {
		t.Fatalf("expected 3 elections, got %d", len(store.elections))
	}
	for i, want := range []string{"2024 Presidential Primary", "2024 Primary Election", "2024 General Election"} {
		if store.elections[i].Name != want {
			t.Errorf("election %d = %q, want %q", i, store.elections[i].Name, want)
		}
	}

	// The precinct voted at the same place for both primaries, then moved
	// for the general: two history entries, pointer on the later place.
	history, _ := store.ListAssignments("VA-X-P-101")
	if len(history) != 2 {
		t.Fatalf("expected 2 assignment entries, got %d", len(history))
	}
	if history[0].PollingPlaceID != "VA-X-PP-0001" || history[1].PollingPlaceID != "VA-X-PP-0002" {
		t.Errorf("history = %q -> %q", history[0].PollingPlaceID, history[1].PollingPlaceID)
	}
	if history[0].ElectionID == nil || *history[0].ElectionID != store.elections[0].ID {
		t.Error("first entry should be scoped to the march election")
	}
	if got := history[1].AssignedDate.Format("2006-01-02"); got != "2024-11-05" {
		t.Errorf("general entry dated %s", got)
	}

	pr, _ := store.GetPrecinct("VA-X-P-101")
	if pr.CurrentPollingPlaceID == nil || *pr.CurrentPollingPlaceID != "VA-X-PP-0002" {
		t.Error("pointer should land on the general-election place")
	}
}

func TestRunHistorical_UnitFailureContinues(t *testing.T) {
	src := &fakeHistorical{
		name: "fixture-hist-partial",
		units: []sources.ImportUnit{
			histUnit("2024-03-05", "2024 Presidential Primary", "primary"),
			histUnit("2024-11-05", "2024 General Election", "general"),
		},
		data: map[string]historicalData{
			"2024-03-05": {err: sources.ErrSourceUnavailable},
			"2024-11-05": {
				places: []sources.PollingPlaceRecord{placeRecord("VA-X-PP-0001", "1 First St")},
			},
		},
	}
	register(t, src)

	store := newFakeStore()
	runner := syncer.NewRunner(store, &fakeResolver{}, sources.Config{})

	res, err := runner.RunHistorical(context.Background(), src.name)
	if err != nil {
		t.Fatalf("RunHistorical: %v", err)
	}
	if res.Success {
		t.Error("a failed unit should fail the overall import")
	}
	if len(res.Units) != 2 {
		t.Fatalf("expected 2 unit results, got %d", len(res.Units))
	}
	if res.Units[0].Success || res.Units[0].Error == "" {
		t.Errorf("first unit = %+v", res.Units[0])
	}
	if !res.Units[1].Success {
		t.Errorf("second unit should still import: %+v", res.Units[1])
	}
	if _, ok := store.places["VA-X-PP-0001"]; !ok {
		t.Error("records from the surviving unit should be persisted")
	}
}

func TestRunHistorical_NotHistorical(t *testing.T) {
	src := &fakeSource{name: "fixture-flat"}
	register(t, src)

	runner := syncer.NewRunner(newFakeStore(), &fakeResolver{}, sources.Config{})
	if _, err := runner.RunHistorical(context.Background(), src.name); err == nil {
		t.Error("expected an error for a source without an archive")
	}
}

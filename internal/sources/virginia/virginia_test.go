package virginia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(sources.VirginiaConfig{}); err == nil {
		t.Error("expected an error when no elections are configured")
	}
	if _, err := New(sources.VirginiaConfig{Elections: map[string]string{"11/05/2024": "https://example.com/a.xlsx"}}); err == nil {
		t.Error("expected an error for a malformed election date")
	}
}

func TestFetchPollingPlaces_UsesLatestElection(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		w.Write(buildSpreadsheet(t, [][]string{
			testHeader,
			{"ACCOMACK COUNTY", "101 - CHINCOTEAGUE", "Fire House", "5073 Deep Hole Rd", "", "Chincoteague", "23336"},
		}))
	}))
	defer srv.Close()

	a, err := New(sources.VirginiaConfig{Elections: map[string]string{
		"2024-03-05": srv.URL + "/march.xlsx",
		"2024-11-05": srv.URL + "/november.xlsx",
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	places, err := a.FetchPollingPlaces(context.Background())
	if err != nil {
		t.Fatalf("FetchPollingPlaces: %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
	if len(requested) != 1 || requested[0] != "/november.xlsx" {
		t.Errorf("expected a single fetch of the latest election, got %v", requested)
	}
}

func TestFetchPollingPlaces_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a, err := New(sources.VirginiaConfig{Elections: map[string]string{"2024-11-05": srv.URL + "/gone.xlsx"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := a.FetchPollingPlaces(context.Background()); !errors.Is(err, sources.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestListImportUnits_SortedWithMetadata(t *testing.T) {
	a, err := New(sources.VirginiaConfig{Elections: map[string]string{
		"2024-11-05": "https://example.com/Polling-Places-(10-9-24).xlsx",
		"2024-03-05": "https://example.com/Polling-Places-(2-20-24).xlsx",
		"2024-06-18": "https://example.com/Polling-Places-20240528.xlsx",
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	units, err := a.ListImportUnits(context.Background())
	if err != nil {
		t.Fatalf("ListImportUnits: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}

	dates := []string{"2024-03-05", "2024-06-18", "2024-11-05"}
	for i, want := range dates {
		if got := units[i].ElectionDate.Format("2006-01-02"); got != want {
			t.Errorf("unit %d date = %s, want %s", i, got, want)
		}
	}
	if units[0].ElectionName != "2024 Presidential Primary" || units[0].ElectionType != "primary" {
		t.Errorf("march unit = (%q, %q)", units[0].ElectionName, units[0].ElectionType)
	}
	if units[2].ElectionName != "2024 General Election" || units[2].ElectionType != "general" {
		t.Errorf("november unit = (%q, %q)", units[2].ElectionName, units[2].ElectionType)
	}
	if units[1].FileDate != "2024-05-28" {
		t.Errorf("june file date = %q", units[1].FileDate)
	}
}

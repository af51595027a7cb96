package locations

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// GetPollingPlaces handles GET /locations/polling-places
// Supports ?state=VA, ?source=virginia, ?limit, ?offset.
func GetPollingPlaces(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(r.URL.Query().Get("state"))
	source := r.URL.Query().Get("source")
	limit, offset := pageParams(r)

	places, err := defaultStore.ListPollingPlaces(state, source, limit, offset)
	if err != nil {
		http.Error(w, "Failed to fetch polling places", http.StatusInternalServerError)
		return
	}
	writeJSON(w, places)
}

// GetPollingPlaceByID handles GET /locations/polling-places/{id}
func GetPollingPlaceByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pp, err := defaultStore.GetPollingPlace(id)
	if err != nil {
		http.Error(w, "Failed to fetch polling place", http.StatusInternalServerError)
		return
	}
	if pp == nil {
		http.Error(w, "Polling place not found", http.StatusNotFound)
		return
	}
	writeJSON(w, pp)
}

// GetPollingPlacesVIP handles GET /locations/polling-places/vip
// Emits the same rows in VIP polling-location form for downstream civic
// data consumers.
func GetPollingPlacesVIP(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(r.URL.Query().Get("state"))
	source := r.URL.Query().Get("source")
	limit, offset := pageParams(r)

	places, err := defaultStore.ListPollingPlaces(state, source, limit, offset)
	if err != nil {
		http.Error(w, "Failed to fetch polling places", http.StatusInternalServerError)
		return
	}

	out := make([]VIPPollingLocation, 0, len(places))
	for i := range places {
		out = append(out, ToVIP(places[i]))
	}
	writeJSON(w, out)
}

// GetPrecincts handles GET /locations/precincts
// Supports ?state=VA, ?changed_recently=true, ?limit, ?offset.
func GetPrecincts(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(r.URL.Query().Get("state"))
	changedOnly := r.URL.Query().Get("changed_recently") == "true"
	limit, offset := pageParams(r)

	precincts, err := defaultStore.ListPrecincts(state, changedOnly, limit, offset)
	if err != nil {
		http.Error(w, "Failed to fetch precincts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, precincts)
}

// GetPrecinctByID handles GET /locations/precincts/{id}
func GetPrecinctByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := defaultStore.GetPrecinct(id)
	if err != nil {
		http.Error(w, "Failed to fetch precinct", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Precinct not found", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

// GetPrecinctHistory handles GET /locations/precincts/{id}/history
// Returns the precinct's full assignment history, oldest first.
func GetPrecinctHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := defaultStore.GetPrecinct(id)
	if err != nil {
		http.Error(w, "Failed to fetch precinct", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Precinct not found", http.StatusNotFound)
		return
	}

	history, err := defaultStore.ListAssignments(id)
	if err != nil {
		http.Error(w, "Failed to fetch assignment history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"precinct": p,
		"history":  history,
	})
}

// GetElections handles GET /locations/elections
// Supports ?state=VA.
func GetElections(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(r.URL.Query().Get("state"))

	elections, err := defaultStore.ListElections(state)
	if err != nil {
		http.Error(w, "Failed to fetch elections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, elections)
}

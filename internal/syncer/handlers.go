package syncer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

const maxUploadBytes = 32 << 20 // 32 MB

// sourceStatus pairs a registered adapter with its persisted sync record.
type sourceStatus struct {
	Name        string                     `json:"name"`
	StateCode   string                     `json:"state_code"`
	Description string                     `json:"description"`
	SyncState   *locations.SourceSyncState `json:"sync_state,omitempty"`
}

// ListSources handles GET /sync/sources
func ListSources(w http.ResponseWriter, r *http.Request) {
	statuses := make([]sourceStatus, 0, len(sources.Names()))
	for _, name := range sources.Names() {
		src, err := sources.New(name, defaultConfig)
		if err != nil {
			statuses = append(statuses, sourceStatus{Name: name, Description: fmt.Sprintf("unavailable: %v", err)})
			continue
		}
		st := sourceStatus{
			Name:        src.Name(),
			StateCode:   src.StateCode(),
			Description: src.Description(),
		}
		if state, err := defaultStore.SyncState(name); err == nil {
			st.SyncState = state
		}
		statuses = append(statuses, st)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}

// UploadSourceFile handles POST /sync/{source}/upload
// Accepts multipart form data with a "file" field and hands the payload to
// adapters that take operator-supplied input files.
func UploadSourceFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	src, err := sources.New(name, defaultConfig)
	if err != nil {
		http.Error(w, fmt.Sprintf("Unknown source: %s", name), http.StatusNotFound)
		return
	}
	uploader, ok := src.(sources.FileUploader)
	if !ok {
		http.Error(w, fmt.Sprintf("Source %s does not accept uploads", name), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	if err := uploader.AcceptUpload(payload); err != nil {
		http.Error(w, fmt.Sprintf("Upload rejected: %v", err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "accepted",
		"source": name,
	})
}

// GetAssignmentAudit handles GET /sync/audit
func GetAssignmentAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := defaultStore.AuditAssignments()
	if err != nil {
		http.Error(w, "Failed to audit assignments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(audit)
}

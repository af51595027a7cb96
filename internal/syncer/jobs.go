package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// SyncJob tracks one asynchronous sync or historical import.
type SyncJob struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"` // "sync", "sync_all", "historical"
	Source      string            `json:"source,omitempty"`
	Status      string            `json:"status"` // "running", "completed", "failed"
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *SyncResult       `json:"result,omitempty"`
	Results     []SyncResult      `json:"results,omitempty"`
	Historical  *HistoricalResult `json:"historical,omitempty"`
}

var (
	syncJobs   = make(map[string]*SyncJob)
	syncJobsMu sync.Mutex
)

func newJob(kind, source string) *SyncJob {
	job := &SyncJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		Source:    source,
		Status:    "running",
		StartedAt: time.Now(),
	}
	syncJobsMu.Lock()
	syncJobs[job.ID] = job
	syncJobsMu.Unlock()
	return job
}

func finishJob(job *SyncJob, err error) {
	syncJobsMu.Lock()
	defer syncJobsMu.Unlock()
	now := time.Now()
	job.CompletedAt = &now
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
		return
	}
	job.Status = "completed"
}

func acceptJob(w http.ResponseWriter, job *SyncJob) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// StartSync handles POST /sync/{source}
func StartSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")
	if !knownSource(name) {
		http.Error(w, fmt.Sprintf("Unknown source: %s", name), http.StatusNotFound)
		return
	}

	job := newJob("sync", name)
	go func() {
		res, err := defaultRunner.Run(context.Background(), name)
		syncJobsMu.Lock()
		job.Result = &res
		syncJobsMu.Unlock()
		finishJob(job, err)
		if err != nil {
			log.Printf("[syncer] job=%s sync %s failed: %v", job.ID, name, err)
		}
	}()

	acceptJob(w, job)
}

// StartSyncAll handles POST /sync
func StartSyncAll(w http.ResponseWriter, r *http.Request) {
	job := newJob("sync_all", "")
	go func() {
		results := defaultRunner.RunAll(context.Background())
		syncJobsMu.Lock()
		job.Results = results
		syncJobsMu.Unlock()
		finishJob(job, nil)
	}()

	acceptJob(w, job)
}

// StartHistorical handles POST /sync/{source}/historical
func StartHistorical(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")
	if !knownSource(name) {
		http.Error(w, fmt.Sprintf("Unknown source: %s", name), http.StatusNotFound)
		return
	}

	job := newJob("historical", name)
	go func() {
		res, err := defaultRunner.RunHistorical(context.Background(), name)
		syncJobsMu.Lock()
		job.Historical = &res
		syncJobsMu.Unlock()
		finishJob(job, err)
		if err != nil {
			log.Printf("[syncer] job=%s historical %s failed: %v", job.ID, name, err)
		}
	}()

	acceptJob(w, job)
}

// GetJob handles GET /sync/jobs/{jobID}
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	syncJobsMu.Lock()
	job, ok := syncJobs[jobID]
	var snapshot SyncJob
	if ok {
		snapshot = *job
	}
	syncJobsMu.Unlock()

	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// ListJobs handles GET /sync/jobs
func ListJobs(w http.ResponseWriter, r *http.Request) {
	syncJobsMu.Lock()
	jobs := make([]SyncJob, 0, len(syncJobs))
	for _, job := range syncJobs {
		jobs = append(jobs, *job)
	}
	syncJobsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func knownSource(name string) bool {
	for _, n := range sources.Names() {
		if n == name {
			return true
		}
	}
	return false
}

package syncer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/", StartSyncAll)
	r.Get("/sources", ListSources)
	r.Get("/audit", GetAssignmentAudit)
	r.Get("/jobs", ListJobs)
	r.Get("/jobs/{jobID}", GetJob)

	r.Post("/{source}", StartSync)
	r.Post("/{source}/historical", StartHistorical)
	r.Post("/{source}/upload", UploadSourceFile)

	return r
}

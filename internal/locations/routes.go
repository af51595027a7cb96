package locations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/polling-places", GetPollingPlaces)
	r.Get("/polling-places/vip", GetPollingPlacesVIP)
	r.Get("/polling-places/{id}", GetPollingPlaceByID)

	r.Get("/precincts", GetPrecincts)
	r.Get("/precincts/{id}", GetPrecinctByID)
	r.Get("/precincts/{id}/history", GetPrecinctHistory)

	r.Get("/elections", GetElections)

	return r
}

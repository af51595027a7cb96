package dummy

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Adapter generates plausible fake polling place and precinct data for
// development and demos. Generation is seeded, so two runs with the same
// configuration produce the same records and the pipeline sees them as
// unchanged.
type Adapter struct {
	seed           int64
	states         []string
	placesPerState int
}

var locationTypes = []string{
	"Elementary School", "Middle School", "High School", "Community Center",
	"Public Library", "Fire Station", "City Hall", "Recreation Center",
	"Senior Center", "Church", "Civic Center", "Town Hall",
}

var streetNames = []string{
	"Main St", "Oak Ave", "Maple Dr", "Washington Blvd", "Lincoln Way",
	"Park Ave", "Cedar Ln", "Elm St", "Pine Rd", "Valley View Dr",
	"Highland Ave", "River Rd", "Lake St", "Hill Dr", "Sunset Blvd",
}

var cityPrefixes = []string{
	"Spring", "River", "Lake", "Oak", "Pine", "Cedar", "Maple",
	"Green", "Fair", "Pleasant", "Sun", "Silver", "Golden",
}

var citySuffixes = []string{
	"field", "ville", "town", "dale", "wood", "haven", "port",
	"view", "side", "ridge", "valley", "springs",
}

var compassNames = []string{"North", "South", "East", "West", "Central"}

var noteOptions = []string{
	"Wheelchair accessible",
	"Parking available in rear lot",
	"Enter through main entrance",
	"Use side entrance on election day",
	"ADA compliant facility",
}

var serviceOptions = []string{"Early voting", "Ballot drop-off", "Voter registration"}

var defaultStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

func init() {
	sources.Register("dummy", func(cfg sources.Config) (sources.Source, error) {
		return New(cfg.Dummy)
	})
}

func New(cfg sources.DummyConfig) (*Adapter, error) {
	states := cfg.States
	if len(states) == 0 {
		states = defaultStates
	}
	perState := cfg.PlacesPerState
	if perState <= 0 {
		perState = 25
	}
	// Stable ordering keeps generation deterministic per seed.
	sorted := make([]string, len(states))
	copy(sorted, states)
	sort.Strings(sorted)
	return &Adapter{seed: cfg.Seed, states: sorted, placesPerState: perState}, nil
}

func (a *Adapter) Name() string      { return "dummy" }
func (a *Adapter) StateCode() string { return sources.StateAll }

func (a *Adapter) Description() string {
	return "Generates fake polling place data for testing (all states)"
}

func (a *Adapter) FetchPollingPlaces(ctx context.Context) ([]sources.PollingPlaceRecord, error) {
	rng := rand.New(rand.NewSource(a.seed))
	var places []sources.PollingPlaceRecord
	for _, state := range a.states {
		for i := 1; i <= a.placesPerState; i++ {
			places = append(places, a.generatePlace(rng, state, i))
		}
	}
	return places, nil
}

func (a *Adapter) FetchPrecincts(ctx context.Context) ([]sources.PrecinctRecord, error) {
	// Offset keeps the precinct stream independent of the place stream
	// while staying reproducible for the same seed.
	rng := rand.New(rand.NewSource(a.seed + 1))
	var precincts []sources.PrecinctRecord
	counter := 1
	for _, state := range a.states {
		counties := []string{
			cityPrefixes[rng.Intn(len(cityPrefixes))] + " County",
			compassNames[rng.Intn(len(compassNames))] + " County",
		}
		for placeNum := 1; placeNum <= a.placesPerState; placeNum++ {
			placeID := fmt.Sprintf("%s-%05d", state, placeNum)
			numPrecincts := 3 + rng.Intn(6)
			for p := 1; p <= numPrecincts; p++ {
				voters := 500 + rng.Intn(4501)
				precincts = append(precincts, sources.PrecinctRecord{
					ID:               fmt.Sprintf("%s-P-%06d", state, counter),
					Name:             fmt.Sprintf("Precinct %d", p),
					State:            state,
					County:           counties[rng.Intn(len(counties))],
					PrecinctCode:     fmt.Sprintf("%03d", p),
					RegisteredVoters: &voters,
					PollingPlaceID:   placeID,
				})
				counter++
			}
		}
	}
	return precincts, nil
}

func (a *Adapter) generatePlace(rng *rand.Rand, state string, num int) sources.PollingPlaceRecord {
	lat := 24.5 + rng.Float64()*(49.4-24.5)
	lng := -125.0 + rng.Float64()*(-66.0-(-125.0))

	rec := sources.PollingPlaceRecord{
		ID:   fmt.Sprintf("%s-%05d", state, num),
		Name: compassNames[rng.Intn(len(compassNames))] + " " + locationTypes[rng.Intn(len(locationTypes))],
		AddressLine1: fmt.Sprintf("%d %s", 100+rng.Intn(9900),
			streetNames[rng.Intn(len(streetNames))]),
		City:         cityPrefixes[rng.Intn(len(cityPrefixes))] + citySuffixes[rng.Intn(len(citySuffixes))],
		State:        state,
		ZipCode:      fmt.Sprintf("%05d", 10000+rng.Intn(90000)),
		Latitude:     &lat,
		Longitude:    &lng,
		PollingHours: fmt.Sprintf("%d:00 AM - %d:00 PM", 6+rng.Intn(3), 7+rng.Intn(3)),
	}

	if rng.Intn(2) == 0 {
		rec.LocationName = []string{"Main Entrance", "Gymnasium", "Cafeteria", "Auditorium"}[rng.Intn(4)]
	}
	if rng.Intn(2) == 0 {
		rec.Notes = noteOptions[rng.Intn(len(noteOptions))]
	}
	if rng.Intn(2) == 0 {
		var services []string
		for _, s := range serviceOptions {
			if rng.Intn(2) == 0 {
				services = append(services, s)
			}
		}
		rec.VoterServices = services
	}
	return rec
}

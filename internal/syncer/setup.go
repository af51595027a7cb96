package syncer

import (
	"errors"
	"log"
	"os"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/geocoding"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"

	// Import adapters to register them via init()
	_ "github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources/dummy"
	_ "github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources/ohio"
	_ "github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources/virginia"
	_ "github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources/voterfile"
)

var (
	defaultRunner *Runner
	defaultStore  *locations.Store
	defaultConfig sources.Config
)

func Init(store *locations.Store) *Runner {
	cfgPath := os.Getenv("SOURCES_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/sources.yaml"
	}

	cfg, err := sources.LoadConfig(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[syncer] WARNING: failed to load %s: %v", cfgPath, err)
		}
		log.Printf("[syncer] using default source configuration")
		cfg = sources.DefaultConfig()
	}

	chain := geocoding.BuildChain(cfg.Geocoding.Priority, geocoding.Options{
		RetryAttempts: cfg.Geocoding.RetryAttempts,
		RetryDelay:    cfg.Geocoding.RetryDelay(),
		RateDelay:     cfg.Geocoding.RateDelay(),
	})
	resolver := geocoding.NewResolver(chain...)

	defaultStore = store
	defaultConfig = cfg
	defaultRunner = NewRunner(store, resolver, cfg)

	log.Printf("[syncer] initialized with sources: %v", sources.Names())
	return defaultRunner
}

package sources

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the sources configuration file, one section per concern plus
// one typed section per adapter. API credentials stay in the environment;
// the file only carries URLs, paths and tuning knobs.
type Config struct {
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Sync      SyncConfig      `yaml:"sync"`

	Virginia  VirginiaConfig  `yaml:"virginia"`
	Ohio      OhioConfig      `yaml:"ohio"`
	Dummy     DummyConfig     `yaml:"dummy"`
	Voterfile VoterfileConfig `yaml:"voterfile"`
}

// GeocodingConfig tunes the provider fallback chain.
type GeocodingConfig struct {
	// Priority is the ordered list of provider names to try, e.g.
	// ["census", "google", "mapbox"].
	Priority []string `yaml:"priority"`

	// RetryAttempts bounds per-provider retries on transient failures.
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryDelaySeconds is the fixed delay between retry attempts.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`

	// RateDelayMS is the fixed delay between calls for providers that only
	// accept one address at a time.
	RateDelayMS int `yaml:"rate_delay_ms"`
}

func (g GeocodingConfig) RetryDelay() time.Duration {
	return time.Duration(g.RetryDelaySeconds) * time.Second
}

func (g GeocodingConfig) RateDelay() time.Duration {
	return time.Duration(g.RateDelayMS) * time.Millisecond
}

// SyncConfig tunes the orchestrator.
type SyncConfig struct {
	// BudgetMinutes is the wall-clock budget for one sync run. Records not
	// reached inside the budget are reported as not attempted.
	BudgetMinutes int `yaml:"budget_minutes"`

	// Workers bounds how many adapters sync concurrently.
	Workers int `yaml:"workers"`
}

func (s SyncConfig) Budget() time.Duration {
	return time.Duration(s.BudgetMinutes) * time.Minute
}

type VirginiaConfig struct {
	// Elections maps election dates (YYYY-MM-DD) to the state's published
	// polling-location spreadsheet for that election. The newest entry
	// feeds regular syncs; the whole catalog feeds historical imports.
	Elections map[string]string `yaml:"elections"`
}

type OhioConfig struct {
	// CSVPath is the local CSV the adapter reads; the upload endpoint
	// replaces it.
	CSVPath string `yaml:"csv_path"`
}

type DummyConfig struct {
	Seed           int64    `yaml:"seed"`
	States         []string `yaml:"states"`
	PlacesPerState int      `yaml:"places_per_state"`
}

type VoterfileConfig struct {
	Project string `yaml:"project"`
	Query   string `yaml:"query"`
	State   string `yaml:"state"`
}

// Defaults applied when the file omits a knob.
const (
	defaultRetryAttempts = 3
	defaultRetryDelaySec = 5
	defaultRateDelayMS   = 100
	defaultBudgetMinutes = 30
	defaultSyncWorkers   = 4
)

// LoadConfig reads and parses the YAML sources file, filling defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read sources config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse sources config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns a config with all defaults filled, used by tests
// and tools that run without a config file.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Geocoding.Priority) == 0 {
		c.Geocoding.Priority = []string{"census", "google", "mapbox"}
	}
	if c.Geocoding.RetryAttempts <= 0 {
		c.Geocoding.RetryAttempts = defaultRetryAttempts
	}
	if c.Geocoding.RetryDelaySeconds <= 0 {
		c.Geocoding.RetryDelaySeconds = defaultRetryDelaySec
	}
	if c.Geocoding.RateDelayMS <= 0 {
		c.Geocoding.RateDelayMS = defaultRateDelayMS
	}
	if c.Sync.BudgetMinutes <= 0 {
		c.Sync.BudgetMinutes = defaultBudgetMinutes
	}
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = defaultSyncWorkers
	}
	if len(c.Virginia.Elections) == 0 {
		c.Virginia.Elections = map[string]string{
			"2024-11-05": "https://www.elections.virginia.gov/media/registration-statistics/2024-November-General-Election-Day-Polling-Locations-(10-9-24).xlsx",
			"2024-06-18": "https://www.elections.virginia.gov/media/registration-statistics/2024-June-Democratic-and-Republican-Primary-Polling-Locations-(6-5-24).xlsx",
			"2024-03-05": "https://www.elections.virginia.gov/media/registration-statistics/2024-March-Presidential-Primary-Polling-Locations-(2-27-24).xlsx",
		}
	}
	if c.Ohio.CSVPath == "" {
		c.Ohio.CSVPath = "data/ohio.csv"
	}
	if c.Dummy.PlacesPerState <= 0 {
		c.Dummy.PlacesPerState = 25
	}
}

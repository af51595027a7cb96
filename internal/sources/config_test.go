package sources_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// TestLoadConfig verifies YAML values land in the right fields and the
// duration helpers convert the integer knobs.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `
geocoding:
  priority: [google, census]
  retry_attempts: 2
  retry_delay_seconds: 1
  rate_delay_ms: 50
sync:
  budget_minutes: 10
  workers: 2
ohio:
  csv_path: /tmp/other.csv
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := sources.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if len(cfg.Geocoding.Priority) != 2 || cfg.Geocoding.Priority[0] != "google" {
		t.Errorf("unexpected priority: %v", cfg.Geocoding.Priority)
	}
	if cfg.Geocoding.RetryDelay() != time.Second {
		t.Errorf("expected 1s retry delay, got %v", cfg.Geocoding.RetryDelay())
	}
	if cfg.Geocoding.RateDelay() != 50*time.Millisecond {
		t.Errorf("expected 50ms rate delay, got %v", cfg.Geocoding.RateDelay())
	}
	if cfg.Sync.Budget() != 10*time.Minute {
		t.Errorf("expected 10m budget, got %v", cfg.Sync.Budget())
	}
	if cfg.Ohio.CSVPath != "/tmp/other.csv" {
		t.Errorf("unexpected csv path: %q", cfg.Ohio.CSVPath)
	}
}

// TestLoadConfig_Defaults verifies an empty file is filled with the
// documented defaults, including the Virginia election catalog.
func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := sources.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if len(cfg.Geocoding.Priority) != 3 || cfg.Geocoding.Priority[0] != "census" {
		t.Errorf("unexpected default priority: %v", cfg.Geocoding.Priority)
	}
	if cfg.Geocoding.RetryAttempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.Geocoding.RetryAttempts)
	}
	if cfg.Sync.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Sync.Workers)
	}
	if len(cfg.Virginia.Elections) == 0 {
		t.Error("expected default Virginia election catalog")
	}
	if cfg.Ohio.CSVPath != "data/ohio.csv" {
		t.Errorf("unexpected default csv path: %q", cfg.Ohio.CSVPath)
	}
}

// TestLoadConfig_MissingFile verifies a missing path surfaces the
// underlying filesystem error.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := sources.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

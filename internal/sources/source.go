package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Common errors
var (
	// ErrSourceUnavailable means the upstream endpoint could not be reached
	// after the adapter's own retry budget. Retryable on the next interval.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceFormat means the payload could not be parsed into the
	// expected schema. Fatal to the sync; needs adapter attention.
	ErrSourceFormat = errors.New("source format error")

	ErrUnknownSource = errors.New("unknown source")
)

// StateAll marks adapters that are not tied to a single state.
const StateAll = "ALL"

// Source is the contract every data adapter implements. Adapters are pure
// functions of upstream state plus their configuration; they never touch
// the persisted store.
type Source interface {
	// Name returns the unique adapter name, e.g. "virginia".
	Name() string

	// StateCode returns the two-letter state this adapter covers, or
	// StateAll for multi-state adapters.
	StateCode() string

	// Description returns a human-readable description for status output.
	Description() string

	// FetchPollingPlaces fetches and normalizes polling place data from the
	// adapter's upstream source.
	FetchPollingPlaces(ctx context.Context) ([]PollingPlaceRecord, error)
}

// PrecinctFetcher is implemented by adapters that also provide precinct
// records with assignment hints.
type PrecinctFetcher interface {
	FetchPrecincts(ctx context.Context) ([]PrecinctRecord, error)
}

// HistoricalSource is implemented by adapters that can replay multiple
// past elections. Units must be processed oldest-first so assignment
// history reflects real chronology.
type HistoricalSource interface {
	ListImportUnits(ctx context.Context) ([]ImportUnit, error)
	FetchImportUnit(ctx context.Context, unit ImportUnit) ([]PollingPlaceRecord, []PrecinctRecord, error)
}

// FileUploader is implemented by adapters whose input is a local file that
// operators can replace through the upload endpoint.
type FileUploader interface {
	// AcceptUpload validates the payload and, on success, atomically
	// replaces the adapter's input file keeping a backup of the previous
	// version.
	AcceptUpload(payload []byte) error
}

// sourceRegistry holds registered adapter constructors keyed by name.
// Adapters register themselves from init() in their own packages.
var sourceRegistry = make(map[string]func(Config) (Source, error))

// Register registers an adapter constructor under the given name.
func Register(name string, constructor func(Config) (Source, error)) {
	sourceRegistry[name] = constructor
}

// New builds the named adapter from the configuration.
func New(name string, cfg Config) (Source, error) {
	constructor, ok := sourceRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return constructor(cfg)
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(sourceRegistry))
	for name := range sourceRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

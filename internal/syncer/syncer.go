package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/geocoding"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/reconcile"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Store is everything a sync run needs from the persistence layer.
type Store interface {
	reconcile.Store
	ListPollingPlacesBySource(source string) ([]locations.PollingPlace, error)
	GetOrCreateElection(state string, date time.Time, electionType, name string) (*locations.Election, error)
	SyncState(source string) (*locations.SourceSyncState, error)
	SaveSyncState(st *locations.SourceSyncState) error
}

// Resolver turns addresses into coordinates. Satisfied by
// geocoding.Resolver; tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, addrs []geocoding.Address) map[string]geocoding.Result
}

// Runner drives full sync and historical-import runs for registered
// adapters.
type Runner struct {
	store    Store
	resolver Resolver
	cfg      sources.Config
	now      func() time.Time
}

func NewRunner(store Store, resolver Resolver, cfg sources.Config) *Runner {
	return &Runner{store: store, resolver: resolver, cfg: cfg, now: time.Now}
}

// Run executes one sync for the named adapter: fetch, validate, geocode
// what changed, then reconcile polling places and precincts. Per-record
// failures land in the result; only adapter-level failures return an error.
func (r *Runner) Run(ctx context.Context, name string) (SyncResult, error) {
	result := SyncResult{Adapter: name, StartedAt: r.now()}

	if budget := r.cfg.Sync.Budget(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	src, err := sources.New(name, r.cfg)
	if err != nil {
		result.FinishedAt = r.now()
		return result, err
	}

	places, err := src.FetchPollingPlaces(ctx)
	if err != nil {
		result.FinishedAt = r.now()
		result.Message = err.Error()
		r.recordSyncState(name, false)
		return result, fmt.Errorf("fetch polling places from %s: %w", name, err)
	}

	places, rejected := sources.FilterPollingPlaces(places)
	result.SkippedInvalid += len(rejected)
	for _, rej := range rejected {
		result.Errors = append(result.Errors, reconcile.RecordError{RecordRef: rej.RecordRef, Reason: rej.Reason})
	}
	if err := sources.CheckMalformedRate(len(rejected), len(places)+len(rejected)); err != nil {
		result.FinishedAt = r.now()
		result.Message = err.Error()
		r.recordSyncState(name, false)
		return result, err
	}

	geocoded, unresolved, err := r.geocodeChanged(ctx, name, places)
	if err != nil {
		log.Printf("[syncer] %s: skipping geocoding pass: %v", name, err)
	}
	result.Geocoded = geocoded
	result.Unresolved = unresolved

	engine := reconcile.NewEngine(r.store, name)
	result.absorb(engine.ReconcilePollingPlaces(ctx, places))

	if pf, ok := src.(sources.PrecinctFetcher); ok {
		precincts, err := pf.FetchPrecincts(ctx)
		if err != nil {
			log.Printf("[syncer] %s: precinct fetch failed: %v", name, err)
			result.Errors = append(result.Errors, reconcile.RecordError{RecordRef: "precincts", Reason: err.Error()})
		} else {
			precincts, rejected := sources.FilterPrecincts(precincts)
			result.SkippedInvalid += len(rejected)
			for _, rej := range rejected {
				result.Errors = append(result.Errors, reconcile.RecordError{RecordRef: rej.RecordRef, Reason: rej.Reason})
			}
			result.absorb(engine.ReconcilePrecincts(ctx, precincts, reconcile.AssignmentScope{}))
		}
	}

	result.FinishedAt = r.now()
	result.Success = result.Failed == 0 && result.NotAttempted == 0
	if !result.Success && result.Message == "" {
		result.Message = fmt.Sprintf("%d records failed, %d not attempted", result.Failed, result.NotAttempted)
	}
	r.recordSyncState(name, result.Success)
	log.Printf("[syncer] %s: created=%d updated=%d unchanged=%d failed=%d skipped=%d not_attempted=%d geocoded=%d in %s",
		name, result.Created, result.Updated, result.Unchanged, result.Failed,
		result.SkippedInvalid, result.NotAttempted, result.Geocoded, result.Duration().Round(time.Millisecond))
	return result, nil
}

// RunAll syncs every registered adapter, a bounded number at a time.
// Adapter-level failures are collected rather than cancelling siblings.
func (r *Runner) RunAll(ctx context.Context) []SyncResult {
	names := sources.Names()
	results := make([]SyncResult, len(names))

	g, ctx := errgroup.WithContext(ctx)
	workers := r.cfg.Sync.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, name := range names {
		g.Go(func() error {
			res, err := r.Run(ctx, name)
			if err != nil && res.Message == "" {
				res.Message = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()
	return results
}

// geocodeChanged resolves coordinates for records that need them: places
// not yet stored, places whose address changed, and places still missing
// coordinates. Everything else keeps its stored position untouched.
func (r *Runner) geocodeChanged(ctx context.Context, name string, places []sources.PollingPlaceRecord) (geocoded, unresolved int, err error) {
	stored, err := r.store.ListPollingPlacesBySource(name)
	if err != nil {
		return 0, 0, fmt.Errorf("list stored polling places: %w", err)
	}
	known := make(map[string]*locations.PollingPlace, len(stored))
	for i := range stored {
		known[stored[i].ID] = &stored[i]
	}

	var addrs []geocoding.Address
	var pending []int
	for i := range places {
		rec := &places[i]
		if rec.HasCoordinates() {
			continue
		}
		prev, ok := known[rec.ID]
		if ok && prev.AddressKey() == rec.AddressKey() && prev.Latitude != nil && prev.Longitude != nil {
			// Same address as last time and already placed: reuse.
			lat, lng := *prev.Latitude, *prev.Longitude
			rec.Latitude, rec.Longitude = &lat, &lng
			continue
		}
		addrs = append(addrs, geocoding.Address{
			Line1: rec.AddressLine1,
			City:  rec.City,
			State: rec.State,
			Zip:   rec.ZipCode,
		})
		pending = append(pending, i)
	}
	if len(addrs) == 0 {
		return 0, 0, nil
	}

	resolved := r.resolver.Resolve(ctx, addrs)
	for j, i := range pending {
		res, ok := resolved[addrs[j].Key()]
		if !ok {
			unresolved++
			continue
		}
		lat, lng := res.Latitude, res.Longitude
		places[i].Latitude, places[i].Longitude = &lat, &lng
		geocoded++
	}
	return geocoded, unresolved, nil
}

func (r *Runner) recordSyncState(name string, success bool) {
	st, err := r.store.SyncState(name)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[syncer] %s: load sync state: %v", name, err)
	}
	if st == nil {
		st = &locations.SourceSyncState{SourceName: name}
	}
	now := r.now()
	st.LastSyncAt = &now
	st.SyncCount++
	if !success {
		st.ErrorCount++
	}
	if err := r.store.SaveSyncState(st); err != nil {
		log.Printf("[syncer] %s: save sync state: %v", name, err)
	}
}

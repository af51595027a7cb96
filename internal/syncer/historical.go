package syncer

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/reconcile"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// RunHistorical replays an adapter's archived elections oldest-first so
// each precinct's assignment history comes out in chronological order.
// Units that fail to fetch or parse are recorded and skipped; the rest of
// the import continues.
func (r *Runner) RunHistorical(ctx context.Context, name string) (HistoricalResult, error) {
	result := HistoricalResult{Adapter: name, StartedAt: r.now()}

	src, err := sources.New(name, r.cfg)
	if err != nil {
		result.FinishedAt = r.now()
		return result, err
	}
	hist, ok := src.(sources.HistoricalSource)
	if !ok {
		result.FinishedAt = r.now()
		return result, fmt.Errorf("source %s has no historical archive", name)
	}

	units, err := hist.ListImportUnits(ctx)
	if err != nil {
		result.FinishedAt = r.now()
		return result, fmt.Errorf("list import units for %s: %w", name, err)
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].ElectionDate.Before(units[j].ElectionDate)
	})

	engine := reconcile.NewEngine(r.store, name)
	for _, unit := range units {
		ur := r.importUnit(ctx, engine, hist, src.StateCode(), unit)
		result.Units = append(result.Units, ur)
		if ctx.Err() != nil {
			break
		}
	}

	result.FinishedAt = r.now()
	result.Success = true
	for _, ur := range result.Units {
		if !ur.Success {
			result.Success = false
		}
	}
	return result, nil
}

func (r *Runner) importUnit(ctx context.Context, engine *reconcile.Engine, hist sources.HistoricalSource, state string, unit sources.ImportUnit) UnitResult {
	ur := UnitResult{
		ElectionDate: unit.ElectionDate.Format("2006-01-02"),
		ElectionName: unit.ElectionName,
	}

	places, precincts, err := hist.FetchImportUnit(ctx, unit)
	if err != nil {
		ur.Error = fmt.Sprintf("fetch: %v", err)
		log.Printf("[syncer] historical %s %s: %v", state, ur.ElectionDate, err)
		return ur
	}

	places, rejectedPP := sources.FilterPollingPlaces(places)
	precincts, rejectedPr := sources.FilterPrecincts(precincts)
	ur.SkippedInvalid = len(rejectedPP) + len(rejectedPr)

	election, err := r.store.GetOrCreateElection(state, unit.ElectionDate, unit.ElectionType, unit.ElectionName)
	if err != nil {
		ur.Error = fmt.Sprintf("election: %v", err)
		return ur
	}
	ur.ElectionID = election.ID

	scope := reconcile.AssignmentScope{
		ElectionID:    &election.ID,
		EffectiveDate: unit.ElectionDate,
	}
	var counts reconcile.Counts
	counts.Add(engine.ReconcilePollingPlaces(ctx, places))
	counts.Add(engine.ReconcilePrecincts(ctx, precincts, scope))

	ur.Created = counts.Created
	ur.Updated = counts.Updated
	ur.Unchanged = counts.Unchanged
	ur.Failed = counts.Failed
	ur.Success = counts.Failed == 0 && counts.NotAttempted == 0
	if !ur.Success && ur.Error == "" {
		ur.Error = fmt.Sprintf("%d records failed, %d not attempted", counts.Failed, counts.NotAttempted)
	}
	return ur
}

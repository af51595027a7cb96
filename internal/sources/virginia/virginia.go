package virginia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Adapter fetches polling place and precinct assignments from the Excel
// spreadsheets the Virginia Department of Elections publishes per election.
type Adapter struct {
	elections map[string]string // election date (YYYY-MM-DD) -> spreadsheet URL
	client    *http.Client
}

func init() {
	sources.Register("virginia", func(cfg sources.Config) (sources.Source, error) {
		return New(cfg.Virginia)
	})
}

func New(cfg sources.VirginiaConfig) (*Adapter, error) {
	if len(cfg.Elections) == 0 {
		return nil, fmt.Errorf("virginia: no election spreadsheets configured")
	}
	for date := range cfg.Elections {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("virginia: bad election date %q: %w", date, err)
		}
	}
	return &Adapter{
		elections: cfg.Elections,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (a *Adapter) Name() string      { return "virginia" }
func (a *Adapter) StateCode() string { return "VA" }

func (a *Adapter) Description() string {
	return "Virginia polling place data from state elections website"
}

// latestElection returns the most recent configured election date.
func (a *Adapter) latestElection() string {
	var latest string
	for date := range a.elections {
		if date > latest {
			latest = date
		}
	}
	return latest
}

// FetchPollingPlaces downloads the most recent election's spreadsheet and
// returns its unique polling places.
func (a *Adapter) FetchPollingPlaces(ctx context.Context) ([]sources.PollingPlaceRecord, error) {
	places, _, err := a.fetchElection(ctx, a.latestElection())
	return places, err
}

// FetchPrecincts downloads the most recent election's spreadsheet and
// returns its precinct rows with polling place assignment hints.
func (a *Adapter) FetchPrecincts(ctx context.Context) ([]sources.PrecinctRecord, error) {
	_, precincts, err := a.fetchElection(ctx, a.latestElection())
	return precincts, err
}

// ListImportUnits exposes the configured election catalog for historical
// import, one unit per spreadsheet.
func (a *Adapter) ListImportUnits(ctx context.Context) ([]sources.ImportUnit, error) {
	units := make([]sources.ImportUnit, 0, len(a.elections))
	for date, url := range a.elections {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("virginia: bad election date %q: %w", date, err)
		}
		name, electionType := electionName(parsed)
		units = append(units, sources.ImportUnit{
			ElectionDate: parsed,
			ElectionType: electionType,
			ElectionName: name,
			FileURL:      url,
			FileDate:     fileDate(url),
		})
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].ElectionDate.Before(units[j].ElectionDate)
	})
	return units, nil
}

// FetchImportUnit downloads and parses one election's spreadsheet.
func (a *Adapter) FetchImportUnit(ctx context.Context, unit sources.ImportUnit) ([]sources.PollingPlaceRecord, []sources.PrecinctRecord, error) {
	raw, err := a.download(ctx, unit.FileURL)
	if err != nil {
		return nil, nil, err
	}
	return parseSpreadsheet(raw)
}

func (a *Adapter) fetchElection(ctx context.Context, date string) ([]sources.PollingPlaceRecord, []sources.PrecinctRecord, error) {
	url, ok := a.elections[date]
	if !ok {
		return nil, nil, fmt.Errorf("virginia: no spreadsheet for election %s", date)
	}
	raw, err := a.download(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return parseSpreadsheet(raw)
}

func (a *Adapter) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sources.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", sources.ErrSourceUnavailable, url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sources.ErrSourceUnavailable, err)
	}
	return raw, nil
}

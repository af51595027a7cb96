package voterfile

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// defaultQuery expects a voter file table keyed by precinct id. Deployments
// point the config at their own dataset; the query must yield precinct_id,
// precinct_name and registered columns and accept a @state parameter.
const defaultQuery = `
SELECT precinct_id, precinct_name, COUNT(DISTINCT voter_id) AS registered
FROM voterfile.active_voters
WHERE state = @state
GROUP BY precinct_id, precinct_name
`

// Adapter enriches precinct records with registered voter counts from a
// BigQuery voter file. It contributes no polling places of its own.
type Adapter struct {
	project string
	query   string
	state   string

	// newClient is swapped in tests.
	newClient func(ctx context.Context, project string) (*bigquery.Client, error)
}

func init() {
	sources.Register("voterfile", func(cfg sources.Config) (sources.Source, error) {
		return New(cfg.Voterfile)
	})
}

func New(cfg sources.VoterfileConfig) (*Adapter, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("voterfile: project not configured")
	}
	query := cfg.Query
	if query == "" {
		query = defaultQuery
	}
	state := strings.ToUpper(cfg.State)
	if state == "" {
		state = "OH"
	}
	return &Adapter{
		project: cfg.Project,
		query:   query,
		state:   state,
		newClient: func(ctx context.Context, project string) (*bigquery.Client, error) {
			return bigquery.NewClient(ctx, project)
		},
	}, nil
}

func (a *Adapter) Name() string      { return "voterfile" }
func (a *Adapter) StateCode() string { return a.state }

func (a *Adapter) Description() string {
	return "Registered voter counts per precinct from a BigQuery voter file"
}

// FetchPollingPlaces returns nothing; this adapter only enriches
// precincts.
func (a *Adapter) FetchPollingPlaces(ctx context.Context) ([]sources.PollingPlaceRecord, error) {
	return nil, nil
}

func (a *Adapter) FetchPrecincts(ctx context.Context) ([]sources.PrecinctRecord, error) {
	client, err := a.newClient(ctx, a.project)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to BigQuery: %v", sources.ErrSourceUnavailable, err)
	}
	defer client.Close()

	q := client.Query(a.query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "state", Value: a.state},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: run voter file query: %v", sources.ErrSourceUnavailable, err)
	}

	var precincts []sources.PrecinctRecord
	for {
		var row struct {
			PrecinctID   string `bigquery:"precinct_id"`
			PrecinctName string `bigquery:"precinct_name"`
			Registered   int    `bigquery:"registered"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read voter file row: %v", sources.ErrSourceFormat, err)
		}
		if row.PrecinctID == "" {
			continue
		}
		registered := row.Registered
		precincts = append(precincts, sources.PrecinctRecord{
			ID:               row.PrecinctID,
			Name:             row.PrecinctName,
			State:            a.state,
			RegisteredVoters: &registered,
		})
	}
	return precincts, nil
}

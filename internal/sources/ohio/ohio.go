package ohio

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Column headers as published in the statewide polling location CSV.
const (
	colCounty          = "COUNTY NAME"
	colPrecinctName    = "Precinct Name"
	colStatePrecinct   = "STATE PRECINCT CODE"
	colLocationName    = "NAME"
	colLocationAddress = "ADDRESS"
	colLocationCity    = "CITY"
	colLocationZip     = "ZIP CODE"
)

// Adapter reads polling places and precinct assignments from a local copy
// of Ohio's statewide polling location CSV. Operators refresh the file
// through the upload endpoint.
type Adapter struct {
	csvPath string
}

func init() {
	sources.Register("ohio", func(cfg sources.Config) (sources.Source, error) {
		return New(cfg.Ohio)
	})
}

func New(cfg sources.OhioConfig) (*Adapter, error) {
	if cfg.CSVPath == "" {
		return nil, fmt.Errorf("ohio: csv path not configured")
	}
	return &Adapter{csvPath: cfg.CSVPath}, nil
}

func (a *Adapter) Name() string      { return "ohio" }
func (a *Adapter) StateCode() string { return "OH" }

func (a *Adapter) Description() string {
	return "Ohio polling place data from state CSV"
}

func (a *Adapter) FetchPollingPlaces(ctx context.Context) ([]sources.PollingPlaceRecord, error) {
	rows, err := a.readCSV()
	if err != nil {
		return nil, err
	}
	places, _ := parseRows(rows)
	return places, nil
}

func (a *Adapter) FetchPrecincts(ctx context.Context) ([]sources.PrecinctRecord, error) {
	rows, err := a.readCSV()
	if err != nil {
		return nil, err
	}
	_, precincts := parseRows(rows)
	return precincts, nil
}

// AcceptUpload validates the payload as a well-formed polling location CSV
// and replaces the adapter's input file, keeping the previous version as
// a .backup next to it.
func (a *Adapter) AcceptUpload(payload []byte) error {
	rows, err := decodeCSV(bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: uploaded CSV has no data rows", sources.ErrSourceFormat)
	}

	// Stage the new file completely before touching the current one, so a
	// failed upload never leaves the adapter without an input file.
	if err := os.MkdirAll(filepath.Dir(a.csvPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp := a.csvPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write uploaded CSV: %w", err)
	}
	if _, err := os.Stat(a.csvPath); err == nil {
		if err := os.Rename(a.csvPath, a.csvPath+".backup"); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("backup current CSV: %w", err)
		}
	}
	if err := os.Rename(tmp, a.csvPath); err != nil {
		return fmt.Errorf("install uploaded CSV: %w", err)
	}
	return nil
}

type csvRow map[string]string

func (a *Adapter) readCSV() ([]csvRow, error) {
	f, err := os.Open(a.csvPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", sources.ErrSourceUnavailable, a.csvPath, err)
	}
	defer f.Close()
	return decodeCSV(f)
}

func decodeCSV(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read CSV header: %v", sources.ErrSourceFormat, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	required := []string{colCounty, colPrecinctName, colStatePrecinct, colLocationName, colLocationAddress, colLocationCity, colLocationZip}
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range required {
		if !have[col] {
			return nil, fmt.Errorf("%w: missing column %q", sources.ErrSourceFormat, col)
		}
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read CSV row: %v", sources.ErrSourceFormat, err)
		}
		row := make(csvRow, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRows builds unique polling places keyed on (county, name, address,
// city), numbered per county in row order, then links each precinct row to
// its place.
func parseRows(rows []csvRow) ([]sources.PollingPlaceRecord, []sources.PrecinctRecord) {
	type placeKey struct {
		county, name, address, city string
	}
	placeIDs := make(map[placeKey]string)
	counters := make(map[string]int)

	var places []sources.PollingPlaceRecord
	var precincts []sources.PrecinctRecord

	for _, row := range rows {
		county := row[colCounty]
		name := row[colLocationName]
		address := row[colLocationAddress]
		city := row[colLocationCity]
		if county == "" || name == "" {
			continue
		}

		key := placeKey{county, name, address, city}
		id, ok := placeIDs[key]
		if !ok {
			countyID := strings.ToUpper(strings.ReplaceAll(county, " ", ""))
			counters[county]++
			id = fmt.Sprintf("OH-%s-PP-%04d", countyID, counters[county])
			placeIDs[key] = id
			places = append(places, sources.PollingPlaceRecord{
				ID:           id,
				Name:         name,
				AddressLine1: address,
				City:         city,
				State:        "OH",
				ZipCode:      row[colLocationZip],
				County:       county,
			})
		}

		precinctName := row[colPrecinctName]
		stateCode := row[colStatePrecinct]
		if precinctName == "" || stateCode == "" {
			continue
		}
		countyID := strings.ToUpper(strings.ReplaceAll(county, " ", ""))
		precincts = append(precincts, sources.PrecinctRecord{
			ID:             fmt.Sprintf("OH-%s-%s", countyID, stateCode),
			Name:           precinctName,
			State:          "OH",
			County:         county,
			PrecinctCode:   stateCode,
			PollingPlaceID: id,
		})
	}

	return places, precincts
}

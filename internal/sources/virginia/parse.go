package virginia

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
)

// Spreadsheet columns as published by the state. Header matching is
// case-insensitive because the files are not consistent between elections.
const (
	colLocality = "locality name"
	colPrecinct = "voting precinct name"
	colLocation = "location"
	colAddress1 = "address line 1"
	colAddress2 = "address line 2"
	colCity     = "city"
	colZip      = "zip code"
)

var (
	nonAlnumRe      = regexp.MustCompile(`[^A-Z0-9]`)
	precinctNumRe   = regexp.MustCompile(`^(\d+)`)
	fileDateParenRe = regexp.MustCompile(`\((\d{1,2}-\d{1,2}-\d{2,4})\)`)
	fileDateDigitRe = regexp.MustCompile(`(20\d{6})`)

	countyTitle = cases.Title(language.AmericanEnglish)
)

// parseSpreadsheet turns one election spreadsheet into unique polling
// places and the precinct rows that point at them. Polling places are
// deduplicated on (locality, location, address, city) and numbered per
// locality in row order.
func parseSpreadsheet(raw []byte) ([]sources.PollingPlaceRecord, []sources.PrecinctRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open spreadsheet: %v", sources.ErrSourceFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: spreadsheet has no sheets", sources.ErrSourceFormat)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read sheet %s: %v", sources.ErrSourceFormat, sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: spreadsheet has no data rows", sources.ErrSourceFormat)
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, nil, err
	}

	type placeKey struct {
		locality, location, address, city string
	}
	placeIDs := make(map[placeKey]string)
	counters := make(map[string]int)

	var places []sources.PollingPlaceRecord
	var precincts []sources.PrecinctRecord

	for _, row := range rows[1:] {
		locality := cell(row, cols[colLocality])
		precinctName := cell(row, cols[colPrecinct])
		location := cell(row, cols[colLocation])
		if locality == "" || precinctName == "" || location == "" {
			continue
		}

		localityShort := normalizeLocality(locality)
		address1 := cell(row, cols[colAddress1])
		address2 := cell(row, cols[colAddress2])
		city := cell(row, cols[colCity])
		zip := cell(row, cols[colZip])

		key := placeKey{localityShort, location, address1, city}
		id, ok := placeIDs[key]
		if !ok {
			counters[localityShort]++
			id = fmt.Sprintf("VA-%s-PP-%04d", localityShort, counters[localityShort])
			placeIDs[key] = id
			places = append(places, sources.PollingPlaceRecord{
				ID:           id,
				Name:         location,
				AddressLine1: address1,
				AddressLine2: address2,
				City:         city,
				State:        "VA",
				ZipCode:      zip,
				County:       countyTitle.String(strings.ToLower(locality)),
			})
		}

		precincts = append(precincts, sources.PrecinctRecord{
			ID:             fmt.Sprintf("VA-%s-P-%s", localityShort, precinctNumber(precinctName)),
			Name:           precinctName,
			State:          "VA",
			County:         countyTitle.String(strings.ToLower(locality)),
			PrecinctCode:   precinctNumber(precinctName),
			PollingPlaceID: id,
		})
	}

	return places, precincts, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colLocality, colPrecinct, colLocation, colAddress1, colCity, colZip} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", sources.ErrSourceFormat, required)
		}
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeLocality strips county/city suffixes and non-alphanumerics for
// use in record ids: "ACCOMACK COUNTY" -> "ACCOMACK".
func normalizeLocality(locality string) string {
	s := strings.ToUpper(strings.TrimSpace(locality))
	s = strings.ReplaceAll(s, " COUNTY", "")
	s = strings.ReplaceAll(s, " CITY", "")
	return nonAlnumRe.ReplaceAllString(s, "")
}

// precinctNumber extracts the leading number from a precinct name:
// "101 - CHINCOTEAGUE" -> "101". Names without one fall back to a
// sanitized prefix of the name itself.
func precinctNumber(name string) string {
	name = strings.TrimSpace(name)
	if m := precinctNumRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	s := nonAlnumRe.ReplaceAllString(strings.ToUpper(name), "")
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// electionName derives a display name and type from the election date,
// matching how the state titles its spreadsheets.
func electionName(date time.Time) (name, electionType string) {
	year := date.Year()
	switch {
	case date.Month() == time.November && date.Day() <= 10:
		return fmt.Sprintf("%d General Election", year), "general"
	case date.Month() == time.March:
		return fmt.Sprintf("%d Presidential Primary", year), "primary"
	case date.Month() == time.June:
		return fmt.Sprintf("%d Primary Election", year), "primary"
	default:
		return fmt.Sprintf("%d %s Election", year, date.Month()), ""
	}
}

// fileDate pulls the publication date out of a spreadsheet filename, which
// the state stamps either as "(10-9-24)" or as an 8-digit YYYYMMDD run.
func fileDate(url string) string {
	if m := fileDateParenRe.FindStringSubmatch(url); m != nil {
		for _, layout := range []string{"1-2-06", "1-2-2006"} {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	if m := fileDateDigitRe.FindStringSubmatch(url); m != nil {
		if t, err := time.Parse("20060102", m[1]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

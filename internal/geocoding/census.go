package geocoding

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultCensusURL is the Census Bureau batch geocoder endpoint.
const DefaultCensusURL = "https://geocoding.geo.census.gov/geocoder/locations/addressbatch"

// censusBatchMax is the documented row limit per batch submission.
const censusBatchMax = 1000

// CensusProvider geocodes through the free Census Bureau batch API. It
// takes a whole CSV of addresses in one POST, so no per-address pacing is
// needed.
type CensusProvider struct {
	URL        string
	httpClient *http.Client
	opts       Options
}

func NewCensusProvider(opts Options) *CensusProvider {
	return &CensusProvider{
		URL: DefaultCensusURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		opts: opts.withDefaults(),
	}
}

func (p *CensusProvider) Name() string { return "census" }

// Resolve submits the batch (paged at the API's row limit) and parses the
// returned CSV. Unmatched addresses are simply absent from the result.
func (p *CensusProvider) Resolve(ctx context.Context, addrs []Address) (map[string]Result, error) {
	out := make(map[string]Result)
	for start := 0; start < len(addrs); start += censusBatchMax {
		end := start + censusBatchMax
		if end > len(addrs) {
			end = len(addrs)
		}
		if err := p.resolvePage(ctx, addrs[start:end], out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (p *CensusProvider) resolvePage(ctx context.Context, addrs []Address, out map[string]Result) error {
	body, contentType, err := buildCensusRequest(addrs)
	if err != nil {
		return fmt.Errorf("build census request: %w", err)
	}

	var resp *http.Response
	for attempt := 1; attempt <= p.opts.RetryAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err = p.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}
		if attempt == p.opts.RetryAttempts {
			if err != nil {
				return fmt.Errorf("census request: %w", err)
			}
			return fmt.Errorf("census request: giving up after %d attempts", attempt)
		}
		log.Printf("[census] attempt %d failed, retrying in %s", attempt, p.opts.RetryDelay)
		if err := sleepCtx(ctx, p.opts.RetryDelay); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	matched, err := parseCensusResponse(resp.Body, addrs)
	if err != nil {
		return err
	}
	for k, v := range matched {
		out[k] = v
	}
	return nil
}

// buildCensusRequest writes the multipart form the batch endpoint expects:
// an addressFile CSV of id,street,city,state,zip plus benchmark fields.
// Row ids are batch indices so the response can be joined back.
func buildCensusRequest(addrs []Address) ([]byte, string, error) {
	var csvBuf bytes.Buffer
	csvBuf.WriteString("id,street,city,state,zip\n")
	w := csv.NewWriter(&csvBuf)
	for i, a := range addrs {
		norm := func(s string) string { return strings.Join(strings.Fields(s), " ") }
		if err := w.Write([]string{strconv.Itoa(i), norm(a.Line1), norm(a.City), a.State, a.Zip}); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("addressFile", "addresses.csv")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(csvBuf.Bytes()); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("benchmark", "Public_AR_Census2020"); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("vintage", "Census2020_Census2020"); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), mw.FormDataContentType(), nil
}

// parseCensusResponse reads the result CSV. Columns: id, input address,
// match indicator, match type, matched address, "lon,lat", tigerline, side.
func parseCensusResponse(r io.Reader, addrs []Address) (map[string]Result, error) {
	out := make(map[string]Result)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("parse census response: %w", err)
		}
		if len(rec) < 6 || rec[2] != "Match" {
			continue
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil || idx < 0 || idx >= len(addrs) {
			continue
		}
		coords := strings.Split(rec[5], ",")
		if len(coords) != 2 {
			continue
		}
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if lonErr != nil || latErr != nil {
			continue
		}
		out[addrs[idx].Key()] = Result{Latitude: lat, Longitude: lon}
	}
	return out, nil
}

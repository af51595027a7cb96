package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// DefaultGoogleURL is the Google Maps Geocoding API endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

var ErrMissingGoogleKey = errors.New("GOOGLE_GEOCODING_API_KEY environment variable is not set")

// GoogleProvider geocodes one address per request against the Google Maps
// API, paced by a rate limiter to stay inside the per-second quota.
type GoogleProvider struct {
	URL        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       Options
}

// NewGoogleProvider builds the provider from the GOOGLE_GEOCODING_API_KEY
// env var. Returns ErrMissingGoogleKey when the key is absent so the chain
// builder can skip it.
func NewGoogleProvider(opts Options) (*GoogleProvider, error) {
	key := os.Getenv("GOOGLE_GEOCODING_API_KEY")
	if key == "" {
		return nil, ErrMissingGoogleKey
	}
	opts = opts.withDefaults()
	return &GoogleProvider{
		URL:    DefaultGoogleURL,
		apiKey: key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(opts.RateDelay), 1),
		opts:    opts,
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (p *GoogleProvider) Resolve(ctx context.Context, addrs []Address) (map[string]Result, error) {
	out := make(map[string]Result)
	for _, a := range addrs {
		if err := p.limiter.Wait(ctx); err != nil {
			return out, err
		}
		res, err := p.resolveOne(ctx, a)
		if err != nil {
			// Per-address misses are not fatal; the resolver falls through
			// to the next provider for whatever stays unresolved.
			log.Printf("[google] %s: %v", a.Line(), err)
			continue
		}
		out[a.Key()] = res
	}
	return out, nil
}

func (p *GoogleProvider) resolveOne(ctx context.Context, a Address) (Result, error) {
	params := url.Values{}
	params.Set("address", a.Line())
	params.Set("key", p.apiKey)
	fullURL := fmt.Sprintf("%s?%s", p.URL, params.Encode())

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return Result{}, fmt.Errorf("create request: %w", err)
		}

		resp, err := p.httpClient.Do(req)
		if err == nil {
			res, retryable, decodeErr := decodeGoogle(resp)
			resp.Body.Close()
			if decodeErr == nil {
				return res, nil
			}
			if !retryable || attempt >= p.opts.RetryAttempts {
				return Result{}, decodeErr
			}
		} else if attempt >= p.opts.RetryAttempts {
			return Result{}, fmt.Errorf("google request: %w", err)
		}

		if err := sleepCtx(ctx, p.opts.RetryDelay); err != nil {
			return Result{}, err
		}
	}
}

// decodeGoogle parses one response, reporting whether a failure is worth
// retrying (rate limit or server error) versus a definitive miss.
func decodeGoogle(resp *http.Response) (Result, bool, error) {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Result{}, true, fmt.Errorf("google returned HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, false, fmt.Errorf("google returned HTTP %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, false, fmt.Errorf("decode google response: %w", err)
	}
	if body.Status == "OVER_QUERY_LIMIT" {
		return Result{}, true, fmt.Errorf("google status %s", body.Status)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return Result{}, false, fmt.Errorf("google status %s (no results)", body.Status)
	}

	loc := body.Results[0].Geometry.Location
	return Result{Latitude: loc.Lat, Longitude: loc.Lng}, false, nil
}

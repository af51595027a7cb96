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

// DefaultMapboxURL is the Mapbox forward geocoding endpoint (v6).
const DefaultMapboxURL = "https://api.mapbox.com/search/geocode/v6/forward"

var ErrMissingMapboxToken = errors.New("MAPBOX_ACCESS_TOKEN environment variable is not set")

// MapboxProvider geocodes one address per request against the Mapbox
// forward geocoding API.
type MapboxProvider struct {
	URL         string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	opts        Options
}

// NewMapboxProvider builds the provider from the MAPBOX_ACCESS_TOKEN env
// var. Returns ErrMissingMapboxToken when the token is absent so the chain
// builder can skip it.
func NewMapboxProvider(opts Options) (*MapboxProvider, error) {
	token := os.Getenv("MAPBOX_ACCESS_TOKEN")
	if token == "" {
		return nil, ErrMissingMapboxToken
	}
	opts = opts.withDefaults()
	return &MapboxProvider{
		URL:         DefaultMapboxURL,
		accessToken: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(opts.RateDelay), 1),
		opts:    opts,
	}, nil
}

func (p *MapboxProvider) Name() string { return "mapbox" }

type mapboxResponse struct {
	Features []struct {
		Properties struct {
			Coordinates struct {
				Longitude float64 `json:"longitude"`
				Latitude  float64 `json:"latitude"`
			} `json:"coordinates"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *MapboxProvider) Resolve(ctx context.Context, addrs []Address) (map[string]Result, error) {
	out := make(map[string]Result)
	for _, a := range addrs {
		if err := p.limiter.Wait(ctx); err != nil {
			return out, err
		}
		res, err := p.resolveOne(ctx, a)
		if err != nil {
			log.Printf("[mapbox] %s: %v", a.Line(), err)
			continue
		}
		out[a.Key()] = res
	}
	return out, nil
}

func (p *MapboxProvider) resolveOne(ctx context.Context, a Address) (Result, error) {
	params := url.Values{}
	params.Set("q", a.Line())
	params.Set("permanent", "false")
	params.Set("access_token", p.accessToken)
	fullURL := fmt.Sprintf("%s?%s", p.URL, params.Encode())

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return Result{}, fmt.Errorf("create request: %w", err)
		}

		resp, err := p.httpClient.Do(req)
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			if resp.StatusCode == http.StatusOK {
				var body mapboxResponse
				decodeErr := json.NewDecoder(resp.Body).Decode(&body)
				resp.Body.Close()
				if decodeErr != nil {
					return Result{}, fmt.Errorf("decode mapbox response: %w", decodeErr)
				}
				if len(body.Features) == 0 {
					return Result{}, errors.New("no features returned")
				}
				c := body.Features[0].Properties.Coordinates
				return Result{Latitude: c.Latitude, Longitude: c.Longitude}, nil
			}
			resp.Body.Close()
			if !retryable || attempt >= p.opts.RetryAttempts {
				return Result{}, fmt.Errorf("mapbox returned HTTP %d", resp.StatusCode)
			}
		} else if attempt >= p.opts.RetryAttempts {
			return Result{}, fmt.Errorf("mapbox request: %w", err)
		}

		if err := sleepCtx(ctx, p.opts.RetryDelay); err != nil {
			return Result{}, err
		}
	}
}

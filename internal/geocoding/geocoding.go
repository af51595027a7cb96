package geocoding

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Address is the postal address handed to a provider.
type Address struct {
	Line1 string
	City  string
	State string
	Zip   string
}

// Key returns the normalized form used to deduplicate addresses across a
// batch and to join provider results back to records.
func (a Address) Key() string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(a.Line1) + "|" + norm(a.City) + "|" + norm(a.State) + "|" + norm(a.Zip)
}

// Line returns the single-line form most geocoders accept.
func (a Address) Line() string {
	return fmt.Sprintf("%s, %s, %s %s", a.Line1, a.City, a.State, a.Zip)
}

// Result holds resolved WGS 84 coordinates.
type Result struct {
	Latitude  float64
	Longitude float64
}

// Provider resolves a batch of addresses. Implementations return results
// keyed by Address.Key; addresses they cannot resolve are simply absent
// from the map. Returning an error means the provider as a whole is down
// and the resolver should fall through to the next one.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, addrs []Address) (map[string]Result, error)
}

// Options tunes retry and pacing behavior shared by all providers.
type Options struct {
	// RetryAttempts bounds attempts per request on transient failures.
	RetryAttempts int

	// RetryDelay is the fixed wait between retry attempts.
	RetryDelay time.Duration

	// RateDelay is the fixed pacing between calls for providers that only
	// take one address per request.
	RateDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.RateDelay <= 0 {
		o.RateDelay = 100 * time.Millisecond
	}
	return o
}

// BuildChain constructs providers in the given priority order. Providers
// whose credentials are missing are skipped with a warning, matching how
// operators run with only the free census geocoder configured.
func BuildChain(priority []string, opts Options) []Provider {
	var chain []Provider
	for _, name := range priority {
		var (
			p   Provider
			err error
		)
		switch name {
		case "census":
			p = NewCensusProvider(opts)
		case "google":
			p, err = NewGoogleProvider(opts)
		case "mapbox":
			p, err = NewMapboxProvider(opts)
		default:
			log.Printf("[geocoding] unknown provider %q, skipping", name)
			continue
		}
		if err != nil {
			log.Printf("[geocoding] %s disabled: %v", name, err)
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package geocoding

import (
	"context"
	"log"
)

// Resolver walks an ordered provider chain until every address in a batch
// is resolved or the chain is exhausted. It holds no persistent state; the
// orchestrator is responsible for only handing it addresses that are new
// or changed since the last sync.
type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve deduplicates the batch by normalized address key, then tries
// each provider in priority order on whatever is still unresolved.
// Exhausting the chain for an address is never an error; the address is
// simply absent from the returned map and its record keeps nil
// coordinates.
func (r *Resolver) Resolve(ctx context.Context, addrs []Address) map[string]Result {
	resolved := make(map[string]Result)

	// Dedupe, preserving first occurrence order.
	var pending []Address
	seen := make(map[string]bool)
	for _, a := range addrs {
		if k := a.Key(); !seen[k] {
			seen[k] = true
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return resolved
	}

	for _, p := range r.providers {
		if len(pending) == 0 {
			break
		}
		log.Printf("[geocoding] trying %s for %d addresses", p.Name(), len(pending))

		results, err := p.Resolve(ctx, pending)
		for k, v := range results {
			resolved[k] = v
		}
		if err != nil {
			// Provider-level failure falls through to the next provider
			// rather than failing the batch.
			log.Printf("[geocoding] %s failed: %v", p.Name(), err)
		}

		var remaining []Address
		for _, a := range pending {
			if _, ok := resolved[a.Key()]; !ok {
				remaining = append(remaining, a)
			}
		}
		pending = remaining
	}

	if len(pending) > 0 {
		log.Printf("[geocoding] %d of %d addresses unresolved after all providers", len(pending), len(seen))
	}
	return resolved
}

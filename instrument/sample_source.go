package instrument

import "sync"

// SampleResolver resolves a sample reference to decoded audio. Resolution is
// a pure lookup: any on-demand loading happens behind a resolver injected by
// the caller, keeping graph construction free of hidden I/O.
type SampleResolver interface {
	Resolve(ref SampleRef) (*SampleData, bool)
}

// ResolverChain tries each resolver in order and returns the first hit.
// The conventional order is asset manager, then loader cache, then inline
// data, then any on-demand loader.
type ResolverChain []SampleResolver

// Resolve implements SampleResolver.
func (c ResolverChain) Resolve(ref SampleRef) (*SampleData, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}

		if data, ok := r.Resolve(ref); ok && data != nil {
			return data, true
		}
	}

	return nil, false
}

// InlineSamples resolves references that carry their decoded data inline.
type InlineSamples struct{}

// Resolve implements SampleResolver.
func (InlineSamples) Resolve(ref SampleRef) (*SampleData, bool) {
	if ref.Inline == nil || len(ref.Inline.Left) == 0 {
		return nil, false
	}

	return ref.Inline, true
}

// SampleCache is a keyed loader cache, safe for concurrent render passes.
type SampleCache struct {
	mu sync.RWMutex
	m  map[string]*SampleData
}

// NewSampleCache creates an empty cache.
func NewSampleCache() *SampleCache {
	return &SampleCache{m: make(map[string]*SampleData)}
}

// Store caches decoded data under the reference URI.
func (c *SampleCache) Store(uri string, data *SampleData) {
	if uri == "" || data == nil {
		return
	}

	c.mu.Lock()
	c.m[uri] = data
	c.mu.Unlock()
}

// Resolve implements SampleResolver.
func (c *SampleCache) Resolve(ref SampleRef) (*SampleData, bool) {
	if ref.URI == "" {
		return nil, false
	}

	c.mu.RLock()
	data, ok := c.m[ref.URI]
	c.mu.RUnlock()

	return data, ok
}

// DefaultResolver builds the cache-first resolution chain. Resolvers in
// front are consulted before the cache; inline data is the final fallback.
func DefaultResolver(cache *SampleCache, front ...SampleResolver) ResolverChain {
	chain := make(ResolverChain, 0, len(front)+2)
	chain = append(chain, front...)

	if cache != nil {
		chain = append(chain, cache)
	}

	return append(chain, InlineSamples{})
}

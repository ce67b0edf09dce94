package pricing

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// CachedSource serves recent quotes from memory and falls through to next on
// a miss. Lookup failures are never cached.
type CachedSource struct {
	next  Source
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCachedSource wraps next with a TTL cache holding up to maxEntries quotes.
func NewCachedSource(next Source, maxEntries int64, ttl time.Duration) (*CachedSource, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachedSource{next: next, cache: c, ttl: ttl}, nil
}

// Quote implements Source.
func (s *CachedSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	if v, ok := s.cache.Get(symbol); ok {
		if q, ok := v.(Quote); ok {
			return q, nil
		}
	}
	q, err := s.next.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	s.cache.SetWithTTL(symbol, q, 1, s.ttl)
	return q, nil
}

// Invalidate implements Invalidator.
func (s *CachedSource) Invalidate(symbol string) {
	s.cache.Del(symbol)
}

// Close stops the cache's background goroutines.
func (s *CachedSource) Close() {
	s.cache.Close()
}

var (
	_ Source      = (*CachedSource)(nil)
	_ Invalidator = (*CachedSource)(nil)
)

package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/pkg/redis"
)

// CachedSource caches price history in Redis. Historic daily bars are
// immutable, so entries get a long TTL. It implements engine.PriceSource.
type CachedSource struct {
	source engine.PriceSource
	cache  *redis.Cache
	ttl    time.Duration
}

// NewCachedSource wraps a price source with a Redis cache.
func NewCachedSource(source engine.PriceSource, cache *redis.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

// History implements engine.PriceSource.
func (c *CachedSource) History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	key := fmt.Sprintf("prices:%s:%s:%s", ticker, from.Format("20060102"), to.Format("20060102"))

	var cached []contracts.PriceBar
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	bars, err := c.source.History(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}

	// Best effort; a failed cache write never fails the fetch.
	_ = c.cache.Set(ctx, key, bars, c.ttl)

	return bars, nil
}

package newswire

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/sentiment"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
	"github.com/nmillrr/sec-clearance-algo/pkg/redis"
)

// FallbackSource tries the primary sentiment source first and falls back
// to the secondary on error. Both errors are returned only when both
// sources fail.
type FallbackSource struct {
	primary   sentiment.Source
	secondary sentiment.Source
	logger    *logger.Logger
}

// NewFallbackSource creates a fallback chain of two sources.
func NewFallbackSource(primary, secondary sentiment.Source, log *logger.Logger) *FallbackSource {
	return &FallbackSource{
		primary:   primary,
		secondary: secondary,
		logger:    log,
	}
}

// Query implements sentiment.Source.
func (f *FallbackSource) Query(ctx context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error) {
	articles, err := f.primary.Query(ctx, subject, from, to)
	if err == nil {
		return articles, nil
	}

	f.logger.WithError(err).WithField("subject", subject).Warn("Primary sentiment source failed, trying fallback")

	articles, ferr := f.secondary.Query(ctx, subject, from, to)
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}

	return articles, nil
}

// CachedSource caches query results in Redis. Sentiment for a historic
// window does not change, so entries get a long TTL.
type CachedSource struct {
	source sentiment.Source
	cache  *redis.Cache
	ttl    time.Duration
}

// NewCachedSource wraps a source with a Redis cache.
func NewCachedSource(source sentiment.Source, cache *redis.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

// Query implements sentiment.Source.
func (c *CachedSource) Query(ctx context.Context, subject string, from, to time.Time) ([]contracts.SentimentArticle, error) {
	key := cacheKey(subject, from, to)

	var cached []contracts.SentimentArticle
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	articles, err := c.source.Query(ctx, subject, from, to)
	if err != nil {
		return nil, err
	}

	// Best effort; a failed cache write never fails the query.
	_ = c.cache.Set(ctx, key, articles, c.ttl)

	return articles, nil
}

func cacheKey(subject string, from, to time.Time) string {
	sum := sha1.Sum([]byte(subject))
	return fmt.Sprintf("sentiment:%s:%s:%s",
		hex.EncodeToString(sum[:8]),
		from.Format("20060102"),
		to.Format("20060102"),
	)
}

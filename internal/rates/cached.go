package rates

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridianlending/underwrite/internal/model"
)

type cacheEntry struct {
	rate      float64
	fetchedAt time.Time
}

// Cached wraps a Source with a per-kind TTL cache. Lookups within the TTL
// never touch the inner source; on refresh failure a stale entry is served
// rather than surfacing the error.
type Cached struct {
	inner Source
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[model.BaseRateKind]cacheEntry
}

// CachedOption configures a Cached source.
type CachedOption func(*Cached)

// WithClock overrides the time source. Tests use this to expire entries.
func WithClock(now func() time.Time) CachedOption {
	return func(c *Cached) { c.now = now }
}

// NewCached wraps src with a TTL cache. A non-positive ttl disables caching
// and every lookup passes through.
func NewCached(src Source, ttl time.Duration, opts ...CachedOption) *Cached {
	c := &Cached{
		inner:   src,
		ttl:     ttl,
		now:     time.Now,
		entries: map[model.BaseRateKind]cacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *Cached) Name() string { return c.inner.Name() + "+cache" }

// GetBaseRate implements Source. The lock is held across the inner fetch so
// concurrent callers of an expired kind trigger a single refresh.
func (c *Cached) GetBaseRate(ctx context.Context, kind model.BaseRateKind) (float64, error) {
	if c.ttl <= 0 {
		return c.inner.GetBaseRate(ctx, kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[kind]
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rate, nil
	}

	rate, err := c.inner.GetBaseRate(ctx, kind)
	if err != nil {
		if ok {
			zap.L().Warn("rate refresh failed, serving stale value",
				zap.String("kind", string(kind)),
				zap.Time("fetched_at", entry.fetchedAt),
				zap.Error(err),
			)
			return entry.rate, nil
		}
		return 0, err
	}

	c.entries[kind] = cacheEntry{rate: rate, fetchedAt: c.now()}
	return rate, nil
}

package opendata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
)

// TTLCache stores fetched record lists by resource id together with the time
// they were stored. It never evicts; a stale entry is replaced on the next Put.
type TTLCache struct {
	clock   clockwork.Clock
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records  []domain.Record
	storedAt time.Time
}

// NewTTLCache creates an empty cache. Pass nil to use the real clock.
func NewTTLCache(clock clockwork.Clock) *TTLCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache{
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the records stored under key and how long ago they were stored.
func (c *TTLCache) Get(key string) ([]domain.Record, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, 0, false
	}
	return e.records, c.clock.Since(e.storedAt), true
}

// Put stores records under key, replacing any previous entry.
func (c *TTLCache) Put(key string, records []domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{records: records, storedAt: c.clock.Now()}
}

// CachedFetcher wraps a RecordFetcher and serves results younger than ttl
// from a TTLCache. Errors are never cached.
type CachedFetcher struct {
	inner   domain.RecordFetcher
	cache   *TTLCache
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.RecordFetcher, cache *TTLCache, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedFetcher) FetchRecords(ctx context.Context, resourceID string) ([]domain.Record, error) {
	if records, age, ok := c.cache.Get(resourceID); ok {
		if age < c.ttl {
			c.metrics.FetchCache.WithLabelValues("hit").Inc()
			c.logger.Debug("using cached records", "resource_id", resourceID, "age", age)
			return records, nil
		}
		c.logger.Debug("cached records expired", "resource_id", resourceID, "age", age)
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	records, err := c.inner.FetchRecords(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	c.cache.Put(resourceID, records)
	return records, nil
}

package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) (any, error)

// Config controls optional cache behavior.
type Config struct {
	// ServeStaleOnFailure allows GetOrLoad to return an expired entry,
	// marked stale, when the loader fails outright. Off by default:
	// strict TTL means consumers see "unavailable" rather than old data.
	ServeStaleOnFailure bool
}

// entry is one cached value with expiry. Entries are written whole on each
// refresh, never partially updated.
type entry struct {
	value     any
	expiresAt time.Time
	version   uint64
}

// Cache memoizes fetch results per key with kind-specific TTLs. Concurrent
// GetOrLoad calls for the same key are coalesced: the loader runs once and
// every waiter observes that one result. Failures are never cached.
//
// Expiry is lazy, a timestamp comparison at read time. Prune exists only to
// bound memory; it is not needed for correctness.
type Cache struct {
	cfg Config

	mu      sync.RWMutex
	entries map[string]entry
	version uint64

	group singleflight.Group

	// now is swappable for TTL tests.
	now func() time.Time
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or ok=false on miss or expiry.
// A value past its expiry timestamp is never returned here.
func (c *Cache) Get(key marketdata.Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key.String()]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value for key, running loader under
// single-flight on a miss. On loader success the value is stored with
// now+ttl; on failure nothing is stored and the error propagates to every
// waiter, unless ServeStaleOnFailure is set and an expired entry exists,
// in which case that entry is returned with stale=true.
func (c *Cache) GetOrLoad(ctx context.Context, key marketdata.Key, ttl time.Duration, loader Loader) (value any, stale bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, false, nil
	}

	k := key.String()
	v, err, _ := c.group.Do(k, func() (any, error) {
		// A racing flight may have stored a fresh value between our miss
		// and entering the flight.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.set(k, v, ttl)
		return v, nil
	})

	if err != nil {
		if c.cfg.ServeStaleOnFailure {
			if v, ok := c.getStale(k); ok {
				return v, true, nil
			}
		}
		return nil, false, err
	}
	return v, false, nil
}

// Len returns the number of entries held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops entries that expired more than keepStale ago. With
// ServeStaleOnFailure enabled, pass a keepStale long enough to preserve
// last-known-good values through provider outages.
func (c *Cache) Prune(keepStale time.Duration) int {
	cutoff := c.now().Add(-keepStale)

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.expiresAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) set(k string, v any, ttl time.Duration) {
	c.mu.Lock()
	c.version++
	c.entries[k] = entry{
		value:     v,
		expiresAt: c.now().Add(ttl),
		version:   c.version,
	}
	c.mu.Unlock()
}

// getStale returns the entry for k even if expired.
func (c *Cache) getStale(k string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

package topitems

import (
	"sync"
	"time"
)

// CacheTTL is how long a memoized upstream result stays fresh.
const CacheTTL = 3600 * time.Second

// Cache is a process-wide TTL memo for upstream query results. Expiry is
// lazy: a stale entry is treated as absent and overwritten by the next
// fetch. There is no single-flight guarantee; concurrent identical misses
// may both fetch, with the later write winning. The cache is an
// optimization layer only, so that is an accepted inefficiency.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrFetch returns the cached value for key if present and fresh,
// otherwise calls fetch and stores its result. Fetch errors are returned
// without touching the stored entry.
func (c *Cache[V]) GetOrFetch(key string, fetch func() (V, error)) (V, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.storedAt) < c.ttl {
		return entry.value, nil
	}

	value, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()

	return value, nil
}

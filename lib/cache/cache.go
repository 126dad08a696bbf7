package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a thread-safe, bounded mapping from a canonicalised JSON
// fingerprint to the registry id assigned to it. Eviction is strict LRU by
// access recency, never by insertion time. A capacity of zero disables
// caching: every Get is a miss and Put is a no-op.
type Cache struct {
	inner *lru.Cache[string, int32]
	hits  atomic.Uint64
	misses atomic.Uint64
}

// New creates a Cache with the given capacity. Capacity must be >= 0.
func New(capacity int) *Cache {
	c := &Cache{}
	if capacity <= 0 {
		return c
	}
	// golang-lru/v2 rejects size <= 0, so the zero-capacity case above is
	// handled by leaving c.inner nil rather than by passing 0 through.
	inner, err := lru.New[string, int32](capacity)
	if err != nil {
		// lru.New only fails for a non-positive size, already excluded above.
		panic(err)
	}
	c.inner = inner
	return c
}

// Get looks up id by its canonical key. On a hit the entry is promoted to
// most-recently-used and the hit counter is incremented; on a miss the
// miss counter is incremented.
func (c *Cache) Get(key string) (int32, bool) {
	if c.inner == nil {
		c.misses.Add(1)
		return 0, false
	}
	id, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return id, ok
}

// Put inserts or promotes key -> id. When the cache is at capacity, the
// least-recently-used entry is evicted. A no-op when capacity is zero.
func (c *Cache) Put(key string, id int32) {
	if c.inner == nil {
		return
	}
	c.inner.Add(key, id)
}

// Hits returns the cumulative number of cache hits.
func (c *Cache) Hits() uint64 { return c.hits.Load() }

// Misses returns the cumulative number of cache misses.
func (c *Cache) Misses() uint64 { return c.misses.Load() }

// HitRate returns hits*100/(hits+misses), or 0 when both counters are zero.
func (c *Cache) HitRate() float64 {
	h, m := c.hits.Load(), c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) * 100 / float64(h+m)
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

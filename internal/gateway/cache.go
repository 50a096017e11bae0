package gateway

import (
	"sync"
	"time"
)

// FetchPolicy decides whether a query may be answered from the cache.
type FetchPolicy int

const (
	// CacheFirst answers from a fresh cache entry and only goes to the network on a miss.
	CacheFirst FetchPolicy = iota
	// NetworkOnly always sends the request and refreshes the cache with the result.
	NetworkOnly
)

func (p FetchPolicy) String() string {
	switch p {
	case CacheFirst:
		return "cache-first"
	case NetworkOnly:
		return "network-only"
	default:
		return "unknown"
	}
}

type cacheEntry struct {
	data    []byte
	fetched time.Time
}

// resultCache keeps the raw "data" of query results keyed by operation and
// variables. A zero ttl keeps entries until they are overwritten.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetched) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

func (c *resultCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, fetched: c.now()}
}

func (c *resultCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

package gateway

import (
	"sync"
	"time"
)

const DefaultResultTTL = 60 * time.Second

type cacheEntry struct {
	storedAt time.Time
	result   Result
}

// ResultCache memoizes successful operation results per fingerprint for a
// bounded TTL. Expired entries are purged lazily on access. Construct one
// per process and inject it; there is no package-level instance.
type ResultCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *ResultCache) purgeLocked() {
	cutoff := c.now()
	for key, entry := range c.entries {
		if cutoff.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	entry, ok := c.entries[key]
	return entry.result, ok
}

func (c *ResultCache) Set(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	c.entries[key] = cacheEntry{storedAt: c.now(), result: result}
}

package fetch

import (
	"sync"
	"time"
)

// entry represents a cached result with expiration, grounded on the
// teacher's runtime/decorators/cache.go CacheEntry.
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool { return now.After(e.expiresAt) }

// TTLRuntimeCache implements capability.RuntimeCache, a thread-safe
// in-memory cache with per-entry TTL (spec §4.4 step 6, "runtime TTL
// cache honours per-URL TTL; expired entries are transparently
// refetched"), grounded on the teacher's Cache type.
type TTLRuntimeCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewTTLRuntimeCache() *TTLRuntimeCache {
	return &TTLRuntimeCache{entries: map[string]*entry{}, now: time.Now}
}

func (c *TTLRuntimeCache) Get(url string) ([]byte, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok || e.expired(c.now()) {
		return nil, 0, false
	}
	return e.data, time.Until(e.expiresAt), true
}

func (c *TTLRuntimeCache) Set(url string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = &entry{data: data, expiresAt: c.now().Add(ttl)}
}

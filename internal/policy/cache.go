package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// Cache memoizes validated policy results by merchant and anchor text, so a
// re-scan of the same inbox does not re-query the LLM for identical policy
// sentences.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewCache creates a TTL cache. A non-positive ttl disables expiry.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(merchantDomain, anchorText string) string {
	sum := sha256.Sum256([]byte(anchorText))
	return merchantDomain + ":" + hex.EncodeToString(sum[:8])
}

// Get returns a cached result, or nil on miss or expiry.
func (c *Cache) Get(merchantDomain, anchorText string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(merchantDomain, anchorText)
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	copied := *entry.result
	return &copied
}

// Put stores a result.
func (c *Cache) Put(merchantDomain, anchorText string, r *Result) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *r
	c.entries[cacheKey(merchantDomain, anchorText)] = cacheEntry{
		result:    &copied,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len reports the number of live entries, for stats endpoints.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

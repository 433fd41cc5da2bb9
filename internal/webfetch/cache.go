package webfetch

import (
	"sync"
	"time"
)

// contentCache is a thread-safe TTL cache of extracted page text, keyed by
// URL, so repeated prompts against the same page don't refetch it.
type contentCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	content   string
	fetchedAt time.Time
}

func newContentCache(ttl time.Duration) *contentCache {
	return &contentCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *contentCache) get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || time.Since(entry.fetchedAt) > c.ttl {
		return "", false
	}
	return entry.content, true
}

func (c *contentCache) set(url, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = cacheEntry{content: content, fetchedAt: time.Now()}
}

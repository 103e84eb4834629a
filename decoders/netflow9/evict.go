package netflow9

import (
	"sync"
	"time"
)

// EvictingCache wraps a TemplateCache with an opt-in TTL so stale exporters
// (ones that stopped sending refreshers) eventually drop out of memory.
// There is no TTL by default — this exists purely as local policy a caller
// may opt into.
type EvictingCache struct {
	*TemplateCache

	ttl      time.Duration
	mu       sync.Mutex
	lastSeen map[templateKey]time.Time
}

var _ Cache = (*EvictingCache)(nil)

// NewEvictingCache wraps an existing cache; entries not refreshed within
// ttl become eligible for removal on the next Sweep call.
func NewEvictingCache(cache *TemplateCache, ttl time.Duration) *EvictingCache {
	return &EvictingCache{
		TemplateCache: cache,
		ttl:           ttl,
		lastSeen:      make(map[templateKey]time.Time),
	}
}

// Put records the template and stamps it as seen at now, superseding the
// embedded TemplateCache.Put so Sweep can track freshness.
func (c *EvictingCache) Put(sourceID uint32, template TemplateRecord) {
	c.TemplateCache.Put(sourceID, template)

	key := templateKey{sourceID, template.TemplateID}
	c.mu.Lock()
	c.lastSeen[key] = timeNow()
	c.mu.Unlock()
}

// Get also refreshes the entry's last-seen stamp, since an exporter that's
// still actively emitting data for a template shouldn't lose it to Sweep.
func (c *EvictingCache) Get(sourceID uint32, templateID uint16) (TemplateRecord, bool) {
	t, ok := c.TemplateCache.Get(sourceID, templateID)
	if ok {
		key := templateKey{sourceID, templateID}
		c.mu.Lock()
		c.lastSeen[key] = timeNow()
		c.mu.Unlock()
	}
	return t, ok
}

// Sweep removes every entry whose last-seen stamp is older than the
// configured TTL, returning the count removed. Callers drive this on
// their own schedule (e.g. a ticker in the owning collector); the cache
// never starts a background goroutine of its own.
func (c *EvictingCache) Sweep() int {
	cutoff := timeNow().Add(-c.ttl)

	c.mu.Lock()
	var stale []templateKey
	for key, seen := range c.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		delete(c.lastSeen, key)
	}
	c.mu.Unlock()

	for _, key := range stale {
		c.TemplateCache.mu.Lock()
		delete(c.TemplateCache.templates, key)
		c.TemplateCache.mu.Unlock()
	}
	return len(stale)
}

// timeNow is a var so tests can substitute a deterministic clock without
// the package reaching for a wall-clock dependency.
var timeNow = time.Now

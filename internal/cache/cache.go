// Package cache provides a small TTL cache with an injectable clock and an
// explicit eviction policy. It is always constructed and passed by
// reference, never held as package-level state, so callers stay
// deterministic and testable.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a thread-safe TTL cache. When the cache is full, the stalest
// entry is evicted to make room.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache with the given TTL and capacity.
// maxEntries <= 0 means unbounded.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// WithClock sets a custom clock.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

// Get returns the cached value if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.mu.Lock()
		// Recheck under the write lock, a Set may have refreshed the key.
		if cur, still := c.entries[key]; still && c.now().Sub(cur.storedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value, evicting the stalest entry when at capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictStalest()
		}
	}
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Invalidate removes a key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the current entry count, including not-yet-collected
// expired entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictStalest removes the oldest entry. Caller holds the write lock.
func (c *Cache[V]) evictStalest() {
	var stalestKey string
	var stalestAt time.Time
	first := true

	for k, e := range c.entries {
		if first || e.storedAt.Before(stalestAt) {
			stalestKey = k
			stalestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, stalestKey)
	}
}

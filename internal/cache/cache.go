// Package cache provides an in-process TTL cache for provider responses.
package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is the lifetime applied to cached provider responses.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value    json.RawMessage
	expireAt time.Time
}

// Cache is a keyed TTL cache safe for concurrent use. Entries are expired
// lazily on lookup. Concurrent misses for the same key are not deduplicated;
// both callers may fetch and the last write wins.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// Option configures the cache.
type Option func(*Cache)

// WithClock replaces the cache's time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries live for ttl after insertion.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or false when the key is absent or
// its entry has expired. An entry is never returned at or past its expiry.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !now.Before(e.expireAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry with a fresh one.
		if cur, still := c.entries[key]; still && !now.Before(cur.expireAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores value under key with the configured TTL, unconditionally
// overwriting any existing entry.
func (c *Cache) Set(key string, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:    value,
		expireAt: c.now().Add(c.ttl),
	}
}

// Package cache provides a bounded in-memory cache with per-entry TTL and a
// pluggable eviction policy.
package cache

import (
	"sync"
	"time"
)

// Options configures a Cache.
type Options[K comparable] struct {
	// Size is the maximum number of entries. Zero or negative means unbounded.
	Size int
	// TTL is how long an entry stays valid. Zero or negative disables expiry.
	TTL time.Duration
	// Policy picks eviction victims. Defaults to NewLRU.
	Policy Policy[K]
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe key/value cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
	size    int
	ttl     time.Duration
	policy  Policy[K]
	now     func() time.Time
}

// New creates a Cache from opts.
func New[K comparable, V any](opts Options[K]) *Cache[K, V] {
	if opts.Policy == nil {
		opts.Policy = NewLRU[K]()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		size:    opts.Size,
		ttl:     opts.TTL,
		policy:  opts.Policy,
		now:     opts.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e) {
		c.remove(key)
		var zero V
		return zero, false
	}
	c.policy.Touch(key)
	return e.value, true
}

// Set stores value under key, evicting entries as needed to respect Size.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = e
		c.policy.Touch(key)
		return
	}

	if c.size > 0 {
		for len(c.entries) >= c.size {
			victim, ok := c.policy.Victim()
			if !ok {
				break
			}
			c.remove(victim)
		}
	}
	c.entries[key] = e
	c.policy.Add(key)
}

// Remove deletes key from the cache.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if c.expired(e) {
			c.remove(key)
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// remove must be called with c.mu held.
func (c *Cache[K, V]) remove(key K) {
	delete(c.entries, key)
	c.policy.Remove(key)
}

// Package cache provides the memoization used by the client facade: one
// TTL-bounded instance for dashboard aggregates and one manually
// invalidated instance for dependency traversals.
package cache

import (
	"sync"
	"time"
)

// Key identifies one memoized result. Args is the operation's argument
// tuple rendered to a stable string by the caller.
type Key struct {
	Schedule string
	Op       string
	Args     string
}

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a mutex-guarded key/value store. A zero ttl disables expiry;
// a zero maxEntries disables the size bound. Expiry is lazy: entries are
// dropped when a read finds them stale.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[Key]entry
}

func New(ttl time.Duration, maxEntries int) *Cache {
	return NewWithClock(ttl, maxEntries, time.Now)
}

// NewWithClock injects the clock used for expiry decisions.
func NewWithClock(ttl time.Duration, maxEntries int, now func() time.Time) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
		entries:    make(map[Key]entry),
	}
}

func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Clear removes every entry whose Schedule field equals schedule. An empty
// schedule empties the cache.
func (c *Cache) Clear(schedule string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if schedule == "" {
		c.entries = make(map[Key]entry)
		return
	}
	for key := range c.entries {
		if key.Schedule == schedule {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}

// evict drops expired entries, then the oldest entry if none were expired.
// Callers must hold the mutex.
func (c *Cache) evict() {
	dropped := false
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			dropped = true
		}
	}
	if dropped {
		return
	}

	var oldest Key
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldest = key
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldest)
	}
}

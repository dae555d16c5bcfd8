// Package cache provides a process-local key/value store with per-entry TTL.
package cache

import (
	"sync"
	"time"
)

// Default TTLs for the memoized system queries.
const (
	SystemInfoTTL   = 3 * time.Second
	CPUUsageTTL     = 2 * time.Second
	MemoryUsageTTL  = 2 * time.Second
	DiskUsageTTL    = 5 * time.Second
	NetworkStatsTTL = 2 * time.Second
	ProcessListTTL  = 3 * time.Second
	WebsiteListTTL  = 10 * time.Second
	DatabaseListTTL = 10 * time.Second
)

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is safe for concurrent use. Entries are removed lazily on read and
// eagerly by CleanExpired. There is no size bound.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key, overwriting any previous entry. A ttl of zero
// yields an entry that is already expired once any time passes.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{data: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Get returns the value for key. An expired entry is deleted and reported absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Clear removes key whether or not it has expired.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// ClearAll drops every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// CleanExpired evicts every elapsed entry and returns how many were removed.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

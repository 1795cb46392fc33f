package pricing

import (
	"sync"
	"time"
)

// Source names the tier that supplied a pricing table.
type Source string

const (
	SourceMemory    Source = "memory"
	SourceDisk      Source = "disk"
	SourceNetwork   Source = "network"
	SourceStaleDisk Source = "stale-disk"
	SourceOffline   Source = "offline"
)

// Cache is the in-memory pricing tier. Create one per process and hand it
// to the Resolver.
type Cache struct {
	mu        sync.RWMutex
	table     Table
	origin    Source
	fetchedAt time.Time
	expiresAt time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached table if it has not expired at now.
func (c *Cache) Get(now time.Time) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == nil || !now.Before(c.expiresAt) {
		return nil, false
	}
	return c.table, true
}

// Put stores a table until expiresAt.
func (c *Cache) Put(t Table, origin Source, fetchedAt, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = t
	c.origin = origin
	c.fetchedAt = fetchedAt
	c.expiresAt = expiresAt
}

// Origin reports which tier filled the cache and when its data was fetched.
func (c *Cache) Origin() (Source, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.origin, c.fetchedAt
}

// Package cache holds the short-lived sheet read cache.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/intake-tracker/backend/internal/models"
)

// FetchFunc loads a fresh table from the sheet store.
type FetchFunc func(ctx context.Context) (*models.Table, error)

// TableCache caches sheet snapshots for a fixed window. Entries are keyed by
// sheet only, so every caller within the window sees the same snapshot.
type TableCache struct {
	cache *gocache.Cache
	ttl   time.Duration

	// Invalidate and Clear bump the generations so a fetch that overlapped
	// them does not store its snapshot.
	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

type generation struct {
	epoch uint64
	key   uint64
}

// NewTableCache creates a cache whose entries live for ttl.
func NewTableCache(ttl time.Duration) *TableCache {
	cleanup := 2 * ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &TableCache{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		gens:  make(map[string]uint64),
	}
}

// TTL returns the default entry lifetime.
func (c *TableCache) TTL() time.Duration {
	return c.ttl
}

// GetOrFetch returns the cached table for key, calling fetch on a miss.
// A failed fetch is not cached. A ttl of zero uses the cache lifetime; when
// that is zero too, every call goes to fetch.
func (c *TableCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (*models.Table, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	if ttl > 0 {
		if v, found := c.cache.Get(key); found {
			return v.(*models.Table), nil
		}
	}

	gen := c.generation(key)
	table, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("fetch %s: store returned no table", key)
	}
	if ttl <= 0 {
		return table, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(key) != gen {
		return table, nil
	}
	c.cache.Set(key, table, ttl)
	fmt.Printf("[Cache] Stored %s: %d rows for %s\n", key, table.Len(), ttl)
	return table, nil
}

// Invalidate drops the entry for key so the next read refetches.
func (c *TableCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.cache.Delete(key)
}

// Clear drops every entry.
func (c *TableCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.cache.Flush()
}

func (c *TableCache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(key)
}

func (c *TableCache) generationLocked(key string) generation {
	return generation{epoch: c.epoch, key: c.gens[key]}
}

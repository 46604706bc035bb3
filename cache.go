// FILE: confforge/conf/cache.go
package conf

import (
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheOptions sizes the two cache tiers and the promotion threshold.
type CacheOptions struct {
	// HotCapacity bounds the small fixed-capacity tier for the most
	// frequently read paths.
	HotCapacity int

	// GeneralCapacity bounds the LRU tier for the long tail.
	GeneralCapacity int

	// PromoteAfter is the number of general-tier hits after which an
	// entry moves to the hot tier. Frequency-based, monotonic.
	PromoteAfter int
}

// DefaultCacheOptions returns the standard cache sizing.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		HotCapacity:     64,
		GeneralCapacity: 1024,
		PromoteAfter:    4,
	}
}

// CacheStats are process-lifetime hit/miss counters plus the derived
// ratio, defined as 0 when no lookups have happened yet.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Ratio  float64
}

type cacheEntry struct {
	value      *Value
	generation uint64
	accesses   atomic.Int64
}

// Cache is the two-tier read path in front of a Store: a small hot tier
// for the working set and an LRU general tier for everything else. Entries
// carry the generation they were filled from; a generation mismatch is a
// miss, which is what makes wholesale tree swaps safe without enumerating
// changed paths.
//
// Hit/miss counters are independent atomics and never share a lock with
// the Value root, so statistics collection does not contend with reads.
type Cache struct {
	store *Store
	opts  CacheOptions

	hotMu sync.RWMutex
	hot   map[string]*cacheEntry

	general *lru.Cache[string, *cacheEntry]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache wraps a store with the two-tier cache.
func NewCache(store *Store, opts CacheOptions) (*Cache, error) {
	if opts.HotCapacity <= 0 {
		opts.HotCapacity = DefaultCacheOptions().HotCapacity
	}
	if opts.GeneralCapacity <= 0 {
		opts.GeneralCapacity = DefaultCacheOptions().GeneralCapacity
	}
	if opts.PromoteAfter <= 0 {
		opts.PromoteAfter = DefaultCacheOptions().PromoteAfter
	}
	general, err := lru.New[string, *cacheEntry](opts.GeneralCapacity)
	if err != nil {
		return nil, err
	}
	return &Cache{
		store:   store,
		opts:    opts,
		hot:     make(map[string]*cacheEntry, opts.HotCapacity),
		general: general,
	}, nil
}

// Get resolves a path through hot tier, general tier, then the store,
// filling the cache on a miss. The returned value is shared and read-only.
func (c *Cache) Get(path string) (*Value, error) {
	gen := c.store.Generation()

	// Hot tier.
	c.hotMu.RLock()
	entry, ok := c.hot[path]
	c.hotMu.RUnlock()
	if ok {
		if entry.generation == gen {
			entry.accesses.Add(1)
			c.hits.Add(1)
			return entry.value, nil
		}
		c.hotMu.Lock()
		delete(c.hot, path)
		c.hotMu.Unlock()
	}

	// General tier.
	if entry, ok := c.general.Get(path); ok {
		if entry.generation == gen {
			c.hits.Add(1)
			if entry.accesses.Add(1) >= int64(c.opts.PromoteAfter) {
				c.promote(path, entry)
			}
			return entry.value, nil
		}
		c.general.Remove(path)
	}

	// Cache fill. Generation and mutation counter are captured under the
	// same read lock as the value so a concurrent swap can only make the
	// entry look stale, never fresh.
	c.misses.Add(1)
	v, fillGen, fillMut, err := c.store.getWithGeneration(path)
	if err != nil {
		return nil, err
	}
	return c.fillGeneral(path, v, fillGen, fillMut), nil
}

// fillGeneral inserts a miss snapshot into the general tier. A point
// write landing between the snapshot and the insert has already run its
// invalidation without seeing this entry, so after inserting, the
// mutation counter is re-checked and the fill dropped when it moved.
// The caller still gets the snapshot value; it was consistent when read.
func (c *Cache) fillGeneral(path string, v *Value, gen, mut uint64) *Value {
	entry := &cacheEntry{value: v.Clone(), generation: gen}
	entry.accesses.Store(1)
	c.general.Add(path, entry)
	if c.store.mutations.Load() != mut {
		c.general.Remove(path)
	}
	return entry.value
}

// promote moves an entry into the hot tier, evicting the least frequently
// accessed resident when the tier is full.
func (c *Cache) promote(path string, entry *cacheEntry) {
	c.hotMu.Lock()
	defer c.hotMu.Unlock()

	if _, ok := c.hot[path]; ok {
		return
	}
	if len(c.hot) >= c.opts.HotCapacity {
		var coldest string
		coldestHits := int64(-1)
		for k, e := range c.hot {
			if h := e.accesses.Load(); coldestHits < 0 || h < coldestHits {
				coldest, coldestHits = k, h
			}
		}
		delete(c.hot, coldest)
	}
	c.hot[path] = entry
	c.general.Remove(path)
}

// Invalidate drops exactly the entries a single mutation at path can have
// affected: the path itself, its ancestors (their cached tables embed the
// mutated child) and its descendants. Unrelated paths keep their entries,
// preserving the hit ratio.
func (c *Cache) Invalidate(path string) {
	affected := func(key string) bool {
		return key == path ||
			strings.HasPrefix(key, path+".") ||
			strings.HasPrefix(path, key+".")
	}

	c.hotMu.Lock()
	for k := range c.hot {
		if affected(k) {
			delete(c.hot, k)
		}
	}
	c.hotMu.Unlock()

	for _, k := range c.general.Keys() {
		if affected(k) {
			c.general.Remove(k)
		}
	}
}

// InvalidateAll empties both tiers in one bulk operation, used at the
// moment a hot reload swaps the tree. The generation check already treats
// old entries as misses; the purge just releases their memory promptly.
func (c *Cache) InvalidateAll() {
	c.hotMu.Lock()
	c.hot = make(map[string]*cacheEntry, c.opts.HotCapacity)
	c.hotMu.Unlock()
	c.general.Purge()
}

// Stats returns the lifetime hit/miss counters and derived hit ratio.
func (c *Cache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return CacheStats{Hits: hits, Misses: misses, Ratio: ratio}
}

// ResetStats zeroes the counters. Counters otherwise only reset with the
// process.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}

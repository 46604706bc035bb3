// FILE: confforge/conf/cache_test.go
package conf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts CacheOptions) (*Store, *Cache) {
	t.Helper()
	s := newTestStore(t)
	c, err := NewCache(s, opts)
	require.NoError(t, err)
	return s, c
}

func TestCacheHitMiss(t *testing.T) {
	_, c := newTestCache(t, DefaultCacheOptions())

	// First read fills, second hits
	_, err := c.Get("server.host")
	require.NoError(t, err)
	_, err = c.Get("server.host")
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.Ratio)
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	_, c := newTestCache(t, DefaultCacheOptions())

	_, err := c.Get("absent.path")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get("absent.path")
	assert.ErrorIs(t, err, ErrNotFound)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestCachePromotion(t *testing.T) {
	opts := DefaultCacheOptions()
	opts.PromoteAfter = 3
	_, c := newTestCache(t, opts)

	for i := 0; i < 3; i++ {
		_, err := c.Get("server.host")
		require.NoError(t, err)
	}

	c.hotMu.RLock()
	_, hot := c.hot["server.host"]
	c.hotMu.RUnlock()
	assert.True(t, hot, "path read PromoteAfter times moves to the hot tier")

	_, inGeneral := c.general.Get("server.host")
	assert.False(t, inGeneral, "promotion removes the general-tier entry")
}

func TestCacheGenerationInvalidation(t *testing.T) {
	s, c := newTestCache(t, DefaultCacheOptions())

	v, err := c.Get("server.port")
	require.NoError(t, err)
	i, _ := v.AsInteger()
	require.Equal(t, int64(8080), i)

	// Swap in a new tree; the cached entry's generation is now stale
	fresh := Table()
	require.NoError(t, fresh.Set("server.port", Integer(9090)))
	s.SwapRoot(fresh)

	v, err = c.Get("server.port")
	require.NoError(t, err)
	i, _ = v.AsInteger()
	assert.Equal(t, int64(9090), i, "stale generations are misses, never served")
}

func TestCachePointInvalidation(t *testing.T) {
	s, c := newTestCache(t, DefaultCacheOptions())
	require.NoError(t, s.Set("database.pool.size", Integer(10)))

	warm := []string{"server.host", "server", "database.pool.size", "database", "database.pool"}
	for _, p := range warm {
		_, err := c.Get(p)
		require.NoError(t, err)
	}

	// Mutate through the store, then invalidate the point
	require.NoError(t, s.Set("database.pool.size", Integer(20)))
	c.Invalidate("database.pool.size")

	t.Run("PathItself", func(t *testing.T) {
		v, err := c.Get("database.pool.size")
		require.NoError(t, err)
		i, _ := v.AsInteger()
		assert.Equal(t, int64(20), i)
	})

	t.Run("Ancestors", func(t *testing.T) {
		// Cached ancestor tables embedded the old child value
		v, err := c.Get("database.pool")
		require.NoError(t, err)
		size, ok := v.TableGet("size")
		require.True(t, ok)
		i, _ := size.AsInteger()
		assert.Equal(t, int64(20), i)
	})

	t.Run("UnrelatedSurvive", func(t *testing.T) {
		before := c.Stats().Hits
		_, err := c.Get("server.host")
		require.NoError(t, err)
		assert.Equal(t, before+1, c.Stats().Hits, "unrelated entry still hits")
	})
}

func TestCacheLateFillDropsStaleSnapshot(t *testing.T) {
	s, c := newTestCache(t, DefaultCacheOptions())

	// Replay the narrow interleaving a miss can race through: the fill
	// snapshots the old value, then a write and its point invalidation
	// land before the snapshot reaches the general tier.
	v, gen, mut, err := s.getWithGeneration("server.port")
	require.NoError(t, err)

	require.NoError(t, s.Set("server.port", Integer(9090)))
	c.Invalidate("server.port")

	got := c.fillGeneral("server.port", v, gen, mut)
	i, _ := got.AsInteger()
	assert.Equal(t, int64(8080), i, "the late fill still serves its snapshot")

	// The stale snapshot must not have stuck: the next read misses and
	// sees the written value.
	fresh, err := c.Get("server.port")
	require.NoError(t, err)
	i, _ = fresh.AsInteger()
	assert.Equal(t, int64(9090), i)
}

func TestCacheDescendantInvalidation(t *testing.T) {
	s, c := newTestCache(t, DefaultCacheOptions())
	require.NoError(t, s.Set("database.pool.size", Integer(10)))

	_, err := c.Get("database.pool.size")
	require.NoError(t, err)

	// Replacing the parent table orphans cached descendants
	repl := Table()
	require.NoError(t, repl.Set("size", Integer(99)))
	require.NoError(t, s.Set("database.pool", repl))
	c.Invalidate("database.pool")

	v, err := c.Get("database.pool.size")
	require.NoError(t, err)
	i, _ := v.AsInteger()
	assert.Equal(t, int64(99), i)
}

func TestCacheCloneOnFill(t *testing.T) {
	s, c := newTestCache(t, DefaultCacheOptions())

	cached, err := c.Get("server")
	require.NoError(t, err)

	// An in-place write through the store must not mutate the cached copy
	require.NoError(t, s.Set("server.port", Integer(1)))

	port, ok := cached.TableGet("port")
	require.True(t, ok)
	i, _ := port.AsInteger()
	assert.Equal(t, int64(8080), i, "cached value is an isolated snapshot")
}

func TestCacheSustainedHitRatio(t *testing.T) {
	s := NewStore(Table(), nil)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("section%d.key", i), Integer(int64(i))))
	}
	c, err := NewCache(s, DefaultCacheOptions())
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		_, err := c.Get(fmt.Sprintf("section%d.key", i%20))
		require.NoError(t, err)
	}

	stats := c.Stats()
	assert.Equal(t, uint64(20), stats.Misses, "one fill per distinct path")
	assert.Greater(t, stats.Ratio, 0.99)
}

func TestCacheInvalidateAll(t *testing.T) {
	_, c := newTestCache(t, DefaultCacheOptions())
	_, err := c.Get("server.host")
	require.NoError(t, err)
	c.InvalidateAll()

	c.ResetStats()
	_, err = c.Get("server.host")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

// FILE: confforge/conf/path_test.go
package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) *Value {
	t.Helper()
	root := Table()
	require.NoError(t, root.Set("server.host", String("localhost")))
	require.NoError(t, root.Set("server.port", Integer(8080)))
	require.NoError(t, root.Set("database.pool.size", Integer(10)))
	return root
}

func TestPathValidation(t *testing.T) {
	root := buildTree(t)
	for _, path := range []string{"", ".", "a..b", ".a", "a."} {
		t.Run("Invalid_"+path, func(t *testing.T) {
			_, err := root.Get(path)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestGet(t *testing.T) {
	root := buildTree(t)

	t.Run("Nested", func(t *testing.T) {
		v, err := root.Get("database.pool.size")
		require.NoError(t, err)
		i, _ := v.AsInteger()
		assert.Equal(t, int64(10), i)
	})

	t.Run("IntermediateTable", func(t *testing.T) {
		v, err := root.Get("server")
		require.NoError(t, err)
		assert.True(t, v.IsTable())
	})

	t.Run("Absent", func(t *testing.T) {
		_, err := root.Get("server.missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ThroughScalar", func(t *testing.T) {
		_, err := root.Get("server.port.extra")
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestFlatKeyFallback(t *testing.T) {
	root := Table()
	// An INI-style flat key containing dots
	require.NoError(t, root.TableSet("database.host", String("db.internal")))
	// And a nested sibling whose prefix collides with a flat key
	require.NoError(t, root.Set("cache.ttl", Integer(30)))
	cacheTbl, err := root.Get("cache")
	require.NoError(t, err)
	require.NoError(t, cacheTbl.TableSet("ttl.unit", String("seconds")))

	t.Run("FlatKeyResolves", func(t *testing.T) {
		v, err := root.Get("database.host")
		require.NoError(t, err)
		s, _ := v.AsString()
		assert.Equal(t, "db.internal", s)
	})

	t.Run("NestedWins", func(t *testing.T) {
		v, err := root.Get("cache.ttl")
		require.NoError(t, err)
		assert.Equal(t, KindInteger, v.Kind())
	})

	t.Run("FallbackPastScalar", func(t *testing.T) {
		// cache.ttl is a scalar, so nested navigation dead-ends; the
		// literal key "ttl.unit" of the cache table must still resolve.
		v, err := root.Get("cache.ttl.unit")
		require.NoError(t, err)
		s, _ := v.AsString()
		assert.Equal(t, "seconds", s)
	})
}

func TestSet(t *testing.T) {
	t.Run("CreatesIntermediates", func(t *testing.T) {
		root := Table()
		require.NoError(t, root.Set("a.b.c", Integer(1)))
		v, err := root.Get("a.b")
		require.NoError(t, err)
		assert.True(t, v.IsTable())
	})

	t.Run("RefusesScalarIntermediate", func(t *testing.T) {
		root := Table()
		require.NoError(t, root.Set("a", Integer(1)))
		err := root.Set("a.b", Integer(2))
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("SetReplaceOverwrites", func(t *testing.T) {
		root := Table()
		require.NoError(t, root.Set("a", Integer(1)))
		require.NoError(t, root.SetReplace("a.b", Integer(2)))
		v, err := root.Get("a.b")
		require.NoError(t, err)
		i, _ := v.AsInteger()
		assert.Equal(t, int64(2), i)
	})

	t.Run("OverwriteLeaf", func(t *testing.T) {
		root := buildTree(t)
		require.NoError(t, root.Set("server.port", Integer(9090)))
		v, _ := root.Get("server.port")
		i, _ := v.AsInteger()
		assert.Equal(t, int64(9090), i)
	})
}

func TestRemove(t *testing.T) {
	t.Run("RemovesLeaf", func(t *testing.T) {
		root := buildTree(t)
		removed, err := root.Remove("server.port")
		require.NoError(t, err)
		require.NotNil(t, removed)
		i, _ := removed.AsInteger()
		assert.Equal(t, int64(8080), i)
		assert.False(t, root.Contains("server.port"))
	})

	t.Run("AbsentIsNoop", func(t *testing.T) {
		root := buildTree(t)
		removed, err := root.Remove("server.missing")
		require.NoError(t, err)
		assert.Nil(t, removed)
	})

	t.Run("AbsentBranchIsNoop", func(t *testing.T) {
		root := buildTree(t)
		removed, err := root.Remove("nowhere.at.all")
		require.NoError(t, err)
		assert.Nil(t, removed)
	})

	t.Run("FlatKey", func(t *testing.T) {
		root := Table()
		require.NoError(t, root.TableSet("flat.key", String("v")))
		removed, err := root.Remove("flat.key")
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, 0, root.Len())
	})

	t.Run("ScalarIntermediate", func(t *testing.T) {
		root := Table()
		require.NoError(t, root.Set("a", Integer(1)))
		_, err := root.Remove("a.b")
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestPaths(t *testing.T) {
	root := buildTree(t)
	paths := root.Paths()
	assert.Contains(t, paths, "server")
	assert.Contains(t, paths, "server.host")
	assert.Contains(t, paths, "database.pool.size")

	// Deterministic: the same tree always lists in the same order
	assert.Equal(t, paths, buildTree(t).Paths())
}

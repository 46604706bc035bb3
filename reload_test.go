// FILE: confforge/conf/reload_test.go
package conf_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confforge/conf"
	_ "github.com/confforge/conf/format"
)

type reloadResult struct {
	root *conf.Value
	err  error
}

func reloadFixture(t *testing.T, initial string) (string, *conf.Store, *conf.ReloadController, chan reloadResult) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))

	adapter, err := conf.AdapterFor("toml")
	require.NoError(t, err)
	root, err := adapter.Parse([]byte(initial))
	require.NoError(t, err)

	store := conf.NewStore(root, nil)
	cache, err := conf.NewCache(store, conf.DefaultCacheOptions())
	require.NoError(t, err)

	ctrl := conf.NewReloadController(store, cache, adapter, path, conf.ReloadOptions{
		Debounce: 50 * time.Millisecond,
	})
	results := make(chan reloadResult, 16)
	ctrl.OnReload(func(root *conf.Value, err error) {
		results <- reloadResult{root: root, err: err}
	})
	require.NoError(t, ctrl.Start())
	t.Cleanup(ctrl.Stop)

	return path, store, ctrl, results
}

func waitReload(t *testing.T, results chan reloadResult) reloadResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return reloadResult{}
	}
}

func TestReloadOnWrite(t *testing.T) {
	path, store, ctrl, results := reloadFixture(t, "port = 1\n")
	assert.Equal(t, conf.ReloadWatching, ctrl.State())
	genBefore := store.Generation()

	require.NoError(t, os.WriteFile(path, []byte("port = 2\n"), 0o644))

	r := waitReload(t, results)
	require.NoError(t, r.err)

	v, err := store.Get("port")
	require.NoError(t, err)
	i, _ := v.AsInteger()
	assert.Equal(t, int64(2), i)
	assert.Greater(t, store.Generation(), genBefore, "a swap advances the generation")
}

func TestReloadFailStatic(t *testing.T) {
	path, store, _, results := reloadFixture(t, "port = 1\n")

	require.NoError(t, os.WriteFile(path, []byte("port = = broken\n"), 0o644))

	r := waitReload(t, results)
	require.Error(t, r.err, "malformed text reports through the callback")
	assert.Nil(t, r.root)

	v, err := store.Get("port")
	require.NoError(t, err)
	i, _ := v.AsInteger()
	assert.Equal(t, int64(1), i, "the previous tree stays in service")
}

func TestReloadSurvivesRenameReplace(t *testing.T) {
	path, store, _, results := reloadFixture(t, "port = 1\n")

	// Atomic-writer dance: temp file in the same directory, then rename
	temp := path + ".tmp"
	require.NoError(t, os.WriteFile(temp, []byte("port = 3\n"), 0o644))
	require.NoError(t, os.Rename(temp, path))

	r := waitReload(t, results)
	require.NoError(t, r.err)

	v, err := store.Get("port")
	require.NoError(t, err)
	i, _ := v.AsInteger()
	assert.Equal(t, int64(3), i)
}

func TestReloadDebounceCoalesces(t *testing.T) {
	path, store, _, results := reloadFixture(t, "port = 1\n")

	var count atomic.Int32
	go func() {
		for range results {
			count.Add(1)
		}
	}()

	// A burst of writes inside one debounce window
	for i := 2; i <= 6; i++ {
		require.NoError(t, os.WriteFile(path, []byte("port = 6\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		v, err := store.Get("port")
		if err != nil {
			return false
		}
		i, _ := v.AsInteger()
		return i == 6
	}, 5*time.Second, 20*time.Millisecond)

	final := count.Load()
	assert.GreaterOrEqual(t, final, int32(1))
	assert.Less(t, final, int32(5), "the burst coalesces into fewer reloads than writes")
}

func TestReloadStopIdempotent(t *testing.T) {
	_, _, ctrl, _ := reloadFixture(t, "port = 1\n")
	ctrl.Stop()
	ctrl.Stop()
	assert.Equal(t, conf.ReloadIdle, ctrl.State())
}

func TestConfigWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 1\n"), 0o644))

	cfg := conf.New()
	require.NoError(t, cfg.Load(path))

	results := make(chan reloadResult, 4)
	require.NoError(t, cfg.Watch(func(root *conf.Value, err error) {
		results <- reloadResult{root: root, err: err}
	}))
	defer cfg.StopWatch()

	assert.Equal(t, conf.ReloadWatching, cfg.WatchState())
	assert.Error(t, cfg.Watch(nil), "double watch is rejected")

	require.NoError(t, os.WriteFile(path, []byte("port = 9\n"), 0o644))
	r := waitReload(t, results)
	require.NoError(t, r.err)

	i, err := cfg.Int64("port")
	require.NoError(t, err)
	assert.Equal(t, int64(9), i)
}

func TestWatchWithoutFile(t *testing.T) {
	cfg := conf.New()
	assert.ErrorIs(t, cfg.Watch(nil), conf.ErrNoFilePath)
}

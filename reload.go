// FILE: confforge/conf/reload.go
package conf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadState is the controller's position in its lifecycle.
type ReloadState int32

const (
	// ReloadIdle means no watch is active.
	ReloadIdle ReloadState = iota
	// ReloadWatching means the file watcher is registered and quiet.
	ReloadWatching
	// ReloadPending means a change arrived and the debounce window is
	// running to coalesce rapid successive writes.
	ReloadPending
	// ReloadReloading means a re-parse is in progress.
	ReloadReloading
)

func (s ReloadState) String() string {
	switch s {
	case ReloadIdle:
		return "idle"
	case ReloadWatching:
		return "watching"
	case ReloadPending:
		return "pending"
	case ReloadReloading:
		return "reloading"
	}
	return "unknown"
}

// ReloadCallback receives the result of every reload attempt. On success
// root is the now-current tree and err is nil; on failure root is nil, err
// describes the parse problem, and the prior tree remains in service.
type ReloadCallback func(root *Value, err error)

// ReloadOptions configures the hot-reload controller.
type ReloadOptions struct {
	// Debounce is how long the controller waits after the last change
	// event before re-parsing, coalescing editor write bursts. The
	// watcher delivers at-least-once and may merge underlying writes;
	// the debounce window compensates for both.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultReloadOptions returns the standard watch settings.
func DefaultReloadOptions() ReloadOptions {
	return ReloadOptions{Debounce: DefaultDebounce}
}

// ReloadController watches a backing file, re-parses it on change, and
// atomically swaps the store's tree. The new tree is built entirely off to
// the side; only a fully constructed tree is ever published, so in-flight
// readers never see a partially populated root. Any reload failure is
// all-or-nothing: the prior tree is retained unchanged (fail-static).
type ReloadController struct {
	store   *Store
	cache   *Cache
	adapter Adapter
	path    string
	opts    ReloadOptions

	state atomic.Int32

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *time.Timer
	callback ReloadCallback

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewReloadController builds a controller for one file. The cache may be
// nil when no cache layer sits in front of the store.
func NewReloadController(store *Store, cache *Cache, adapter Adapter, path string, opts ReloadOptions) *ReloadController {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &ReloadController{
		store:   store,
		cache:   cache,
		adapter: adapter,
		path:    filepath.Clean(path),
		opts:    opts,
		done:    make(chan struct{}),
	}
}

// OnReload registers the callback invoked after each reload attempt.
func (c *ReloadController) OnReload(cb ReloadCallback) {
	c.mu.Lock()
	c.callback = cb
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *ReloadController) State() ReloadState {
	return ReloadState(c.state.Load())
}

// Start registers the file watch and begins observing changes. Watching
// the parent directory rather than the file itself survives the
// rename-and-replace dance editors and atomic writers perform.
func (c *ReloadController) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), err)
	}
	c.watcher = w
	c.state.Store(int32(ReloadWatching))

	c.wg.Add(1)
	go c.loop(w)
	return nil
}

func (c *ReloadController) loop(w *fsnotify.Watcher) {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != c.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				c.scheduleReload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.opts.Logger.Warn("file watch error", "path", c.path, "error", err)
		}
	}
}

// scheduleReload enters the pending state and (re)arms the debounce
// timer. Each further event within the window pushes the reload back.
func (c *ReloadController) scheduleReload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Store(int32(ReloadPending))
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.opts.Debounce, c.reload)
}

// reload re-parses the file and publishes the result. The swap step is
// short and allocation-local; it is never a cancellation point.
func (c *ReloadController) reload() {
	select {
	case <-c.done:
		return
	default:
	}
	c.state.Store(int32(ReloadReloading))
	defer c.state.Store(int32(ReloadWatching))

	newRoot, err := c.parse()
	if err != nil {
		c.opts.Logger.Warn("reload failed, retaining previous configuration",
			"path", c.path, "error", err)
		c.notify(nil, err)
		return
	}

	c.store.SwapRoot(newRoot)
	if c.cache != nil {
		c.cache.InvalidateAll()
	}
	c.opts.Logger.Info("configuration reloaded", "path", c.path,
		"generation", c.store.Generation())
	c.notify(newRoot, nil)
}

// parse builds the replacement tree entirely off to the side.
func (c *ReloadController) parse() (*Value, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	return c.adapter.Parse(data)
}

func (c *ReloadController) notify(root *Value, err error) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(root, err)
	}
}

// Stop terminates the watch promptly. It is idempotent and never aborts a
// swap already in progress.
func (c *ReloadController) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.debounce != nil {
			c.debounce.Stop()
			c.debounce = nil
		}
		if c.watcher != nil {
			c.watcher.Close()
			c.watcher = nil
		}
		c.mu.Unlock()
		c.wg.Wait()
		c.state.Store(int32(ReloadIdle))
	})
}

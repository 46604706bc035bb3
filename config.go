// File: confforge/conf/config.go
package conf

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config is the top level handle an application holds. It composes the
// store, the read cache, the optional environment resolver and the
// optional hot reload controller into one resolution chain:
//
//	environment override -> cache -> store
//
// All methods are safe for concurrent use. Values returned from read
// methods must be treated as read-only; mutate configuration through
// Set, Remove and Merge.
type Config struct {
	store *Store
	cache *Cache
	env   *EnvResolver

	logger  *slog.Logger
	audit   *AuditRecorder
	schema  *Schema
	tagName string

	mu       sync.Mutex // guards file binding and reload controller
	adapter  Adapter
	filePath string
	reload   *ReloadController
}

// New returns a Config with an empty tree and default cache sizing. Use
// NewBuilder for anything beyond the basics.
func New() *Config {
	logger := slog.New(slog.DiscardHandler)
	store := NewStore(Table(), logger)
	cache, err := NewCache(store, DefaultCacheOptions())
	if err != nil {
		// Default sizing is always valid; reaching here is a bug.
		panic(fmt.Sprintf("conf: default cache: %v", err))
	}
	return &Config{
		store:   store,
		cache:   cache,
		logger:  logger,
		tagName: "conf",
	}
}

// resolve walks the chain front to back. The env resolver, when present,
// already falls through to the cache, which falls through to the store.
func (c *Config) resolve(path string) (*Value, error) {
	if c.env != nil {
		return c.env.Get(path)
	}
	return c.cache.Get(path)
}

// Get retrieves the value at a dot-separated path, honoring environment
// overrides when configured.
func (c *Config) Get(path string) (*Value, error) {
	return c.resolve(path)
}

// Contains reports whether the path resolves to a value. Environment
// overrides count.
func (c *Config) Contains(path string) bool {
	_, err := c.resolve(path)
	return err == nil
}

// String retrieves a string value using the path, converting scalar
// kinds when the stored value is not already a string.
func (c *Config) String(path string) (string, error) {
	v, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// Int64 retrieves an int64 value using the path. Floats convert only
// when integral, strings only when they parse as base-10 integers.
func (c *Config) Int64(path string) (int64, error) {
	v, err := c.resolve(path)
	if err != nil {
		return 0, err
	}
	return v.AsInteger()
}

// Float64 retrieves a float64 value using the path.
func (c *Config) Float64(path string) (float64, error) {
	v, err := c.resolve(path)
	if err != nil {
		return 0, err
	}
	return v.AsFloat()
}

// Bool retrieves a boolean value using the path. The strings "true",
// "yes", "1" and "on" count as true, their counterparts as false.
func (c *Config) Bool(path string) (bool, error) {
	v, err := c.resolve(path)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// Duration retrieves a time.Duration. Strings parse with
// time.ParseDuration; integers are taken as nanoseconds.
func (c *Config) Duration(path string) (time.Duration, error) {
	v, err := c.resolve(path)
	if err != nil {
		return 0, err
	}
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		d, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("path %s: %w", path, perr)
		}
		return d, nil
	case KindInteger:
		i, _ := v.AsInteger()
		return time.Duration(i), nil
	default:
		return 0, &TypeError{Want: "duration", Got: v.Kind(), Value: v.String()}
	}
}

// Set stores a value at the path, creating intermediate tables as
// needed. Accepts *Value or any plain Go value convertible by
// FromInterface. The affected cache region is invalidated.
func (c *Config) Set(path string, raw any) error {
	val, err := toValue(raw)
	if err != nil {
		return err
	}
	if err := c.store.Set(path, val); err != nil {
		return err
	}
	c.cache.Invalidate(path)
	return nil
}

// Remove deletes the value at the path and returns it. Removing an
// absent path is a no-op returning (nil, nil).
func (c *Config) Remove(path string) (*Value, error) {
	removed, err := c.store.Remove(path)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(path)
	return removed, nil
}

// Merge folds another tree into the current one under the given
// strategy, then drops the whole cache since any path may have changed.
func (c *Config) Merge(other *Value, strategy MergeStrategy) error {
	if err := c.store.Merge(other, strategy); err != nil {
		return err
	}
	c.cache.InvalidateAll()
	return nil
}

// Root returns the live configuration tree. Read-only.
func (c *Config) Root() *Value {
	return c.store.Root()
}

// Paths returns every leaf path in the current tree.
func (c *Config) Paths() []string {
	return c.store.Root().Paths()
}

// Scan decodes the table at the path into target, which must be a
// non-nil struct pointer. Field mapping uses the configured tag name.
func (c *Config) Scan(path string, target any) error {
	v, err := c.resolve(path)
	if err != nil {
		return err
	}
	return decodeValue(v, c.tagName, target)
}

// Unmarshal decodes the whole tree into target.
func (c *Config) Unmarshal(target any) error {
	return decodeValue(c.store.Root(), c.tagName, target)
}

// Validate checks the current tree against the configured schema.
// Without a schema it reports success.
func (c *Config) Validate() error {
	if c.schema == nil {
		return nil
	}
	findings, err := c.schema.Validate(c.store.Root())
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}
	if c.audit != nil {
		for _, f := range findings {
			c.audit.Record(AuditEvent{Kind: AuditValidation, Path: f.Path, Err: f})
		}
	}
	return JoinValidationErrors(findings)
}

// Generation returns the store's current generation counter. It advances
// on whole-tree operations (file reload, merge), not on point writes.
func (c *Config) Generation() uint64 { return c.store.Generation() }

// IsModified reports whether point writes happened since the last load
// or save.
func (c *Config) IsModified() bool { return c.store.IsModified() }

// Degraded reports whether a mutation panicked mid-write, leaving the
// tree suspect. A degraded config keeps serving reads.
func (c *Config) Degraded() bool { return c.store.Degraded() }

// CacheStats returns hit/miss counters for the read cache.
func (c *Config) CacheStats() CacheStats { return c.cache.Stats() }

// ResetCacheStats zeroes the hit/miss counters.
func (c *Config) ResetCacheStats() { c.cache.ResetStats() }

// FlushEnv drops cached environment lookups so the next read of every
// path consults the process environment again. No-op without an env
// resolver.
func (c *Config) FlushEnv() {
	if c.env != nil {
		c.env.Flush()
	}
}

// EnvName maps a path to the environment variable the resolver would
// consult, or "" when environment overrides are not configured.
func (c *Config) EnvName(path string) string {
	if c.env == nil {
		return ""
	}
	return c.env.EnvName(path)
}

// Watch starts hot reload on the bound file and registers cb for swap
// outcomes. The config must have been loaded from a file first.
func (c *Config) Watch(cb ReloadCallback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filePath == "" || c.adapter == nil {
		return ErrNoFilePath
	}
	if c.reload != nil {
		return fmt.Errorf("already watching %s", c.filePath)
	}
	ctrl := NewReloadController(c.store, c.cache, c.adapter, c.filePath, ReloadOptions{
		Logger: c.logger,
	})
	if cb != nil {
		ctrl.OnReload(cb)
	}
	if err := ctrl.Start(); err != nil {
		return err
	}
	c.reload = ctrl
	return nil
}

// StopWatch stops hot reload. Safe to call when not watching.
func (c *Config) StopWatch() {
	c.mu.Lock()
	ctrl := c.reload
	c.reload = nil
	c.mu.Unlock()
	if ctrl != nil {
		ctrl.Stop()
	}
}

// Close stops the hot reload watcher, if any, and the environment
// resolver's background expiry goroutine. The config stays readable
// after Close.
func (c *Config) Close() {
	c.StopWatch()
	if c.env != nil {
		c.env.Close()
	}
}

// WatchState reports the reload controller state, or ReloadIdle when not
// watching.
func (c *Config) WatchState() ReloadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reload == nil {
		return ReloadIdle
	}
	return c.reload.State()
}

// toValue normalizes Set input. *Value passes through untouched.
func toValue(raw any) (*Value, error) {
	if v, ok := raw.(*Value); ok {
		return v, nil
	}
	return FromInterface(raw)
}

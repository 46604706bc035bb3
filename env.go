// File: confforge/conf/env.go
package conf

import (
	"os"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// EnvOptions configures environment variable override resolution.
type EnvOptions struct {
	// Prefix is prepended to every derived variable name, e.g. "MYAPP_"
	// maps "server.port" to "MYAPP_SERVER_PORT".
	Prefix string

	// Separator replaces the path dots in the variable name. Default "_".
	Separator string

	// CaseSensitive keeps the path's original casing in the variable
	// name. By default segments are upper-cased.
	CaseSensitive bool

	// CacheTTL bounds how long a resolved environment lookup (present or
	// absent) is trusted before the process environment is re-read.
	CacheTTL time.Duration
}

// DefaultEnvOptions returns the standard override settings.
func DefaultEnvOptions(prefix string) EnvOptions {
	return EnvOptions{
		Prefix:    prefix,
		Separator: "_",
		CacheTTL:  DefaultEnvCacheTTL,
	}
}

// envEntry caches one resolved lookup. A nil value is a negative entry:
// the variable was absent when last read.
type envEntry struct {
	value *Value
}

// EnvResolver intercepts path lookups and returns a type-coerced
// environment override before falling through to the cache layer.
// Overrides are additive, never required: an absent variable leaves the
// lookup untouched.
type EnvResolver struct {
	opts  EnvOptions
	next  *Cache
	cache *ttlcache.Cache[string, envEntry]
}

// NewEnvResolver wraps a cache layer with environment override
// resolution.
func NewEnvResolver(next *Cache, opts EnvOptions) *EnvResolver {
	if opts.Separator == "" {
		opts.Separator = "_"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultEnvCacheTTL
	}
	r := &EnvResolver{
		opts: opts,
		next: next,
		cache: ttlcache.New[string, envEntry](
			ttlcache.WithTTL[string, envEntry](opts.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, envEntry](),
		),
	}
	// Reads notice expiry on their own; the janitor reaps entries for
	// paths no longer being queried, keeping the cache bounded.
	go r.cache.Start()
	return r
}

// EnvName derives the environment variable name for a path: upper-cased
// segments (unless CaseSensitive), dots replaced by the separator, prefix
// prepended.
func (r *EnvResolver) EnvName(path string) string {
	name := strings.ReplaceAll(path, ".", r.opts.Separator)
	if !r.opts.CaseSensitive {
		name = strings.ToUpper(name)
	}
	return r.opts.Prefix + name
}

// Get returns the coerced override for the path if the matching variable
// is set, otherwise falls through to the cache layer. Coercion order for
// the raw string is fixed: integer, then float, then the literal booleans
// "true"/"false", else string.
func (r *EnvResolver) Get(path string) (*Value, error) {
	name := r.EnvName(path)

	if item := r.cache.Get(name); item != nil {
		if v := item.Value().value; v != nil {
			return v, nil
		}
		return r.next.Get(path)
	}

	raw, ok := os.LookupEnv(name)
	if !ok {
		r.cache.Set(name, envEntry{}, ttlcache.DefaultTTL)
		return r.next.Get(path)
	}

	v := CoerceScalar(raw)
	r.cache.Set(name, envEntry{value: v}, ttlcache.DefaultTTL)
	return v, nil
}

// Flush drops all cached environment lookups, forcing the next access of
// every path to re-read the process environment.
func (r *EnvResolver) Flush() {
	r.cache.DeleteAll()
}

// Close stops the expiry janitor. The resolver stays usable; reads still
// detect expired entries themselves.
func (r *EnvResolver) Close() {
	r.cache.Stop()
}

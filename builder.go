// File: confforge/conf/builder.go
package conf

import (
	"errors"
	"fmt"
	"log/slog"
)

// ValidatorFunc is a custom check run against the fully built Config.
type ValidatorFunc func(c *Config) error

// Builder provides a fluent interface for assembling a Config: file
// binding, defaults, environment overrides, schema, audit sinks, cache
// sizing and hot reload in one pass.
type Builder struct {
	file     string
	format   string
	discover *FileDiscoveryOptions

	defaults    []*Value
	defaultsErr error

	envOpts *EnvOptions

	cacheOpts  CacheOptions
	schema     *Schema
	schemaErr  error
	sinks      []slog.Handler
	actor      string
	logger     *slog.Logger
	tagName    string
	watch      bool
	watchCb    ReloadCallback
	validators []ValidatorFunc

	err error
}

// NewBuilder creates a configuration builder with default cache sizing.
func NewBuilder() *Builder {
	return &Builder{
		cacheOpts: DefaultCacheOptions(),
		tagName:   "conf",
	}
}

// WithFile sets the configuration file to load. Format is detected from
// the extension unless WithFormat overrides it.
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithFormat forces a format by adapter name instead of detection.
func (b *Builder) WithFormat(name string) *Builder {
	b.format = name
	return b
}

// WithFileDiscovery searches standard locations for the configuration
// file instead of a fixed path. The first hit wins.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discover = &opts
	return b
}

// WithDefault sets one default value by path. Defaults sit under file
// values: loading never removes a default the file does not mention.
func (b *Builder) WithDefault(path string, raw any) *Builder {
	v, err := toValue(raw)
	if err != nil {
		b.defaultsErr = errors.Join(b.defaultsErr, fmt.Errorf("default %s: %w", path, err))
		return b
	}
	t := Table()
	if err := t.Set(path, v); err != nil {
		b.defaultsErr = errors.Join(b.defaultsErr, err)
		return b
	}
	b.defaults = append(b.defaults, t)
	return b
}

// WithDefaults derives defaults from a tagged struct, one leaf per
// field. Nested structs become nested tables.
func (b *Builder) WithDefaults(source any) *Builder {
	t, err := encodeStruct(b.tagName, source)
	if err != nil {
		b.defaultsErr = errors.Join(b.defaultsErr, err)
		return b
	}
	b.defaults = append(b.defaults, t)
	return b
}

// WithEnvOverrides enables environment variable overrides with the given
// prefix and default separator and TTL.
func (b *Builder) WithEnvOverrides(prefix string) *Builder {
	opts := DefaultEnvOptions(prefix)
	b.envOpts = &opts
	return b
}

// WithEnvOptions enables environment overrides with full control over
// separator, case sensitivity and cache TTL.
func (b *Builder) WithEnvOptions(opts EnvOptions) *Builder {
	b.envOpts = &opts
	return b
}

// WithCacheOptions overrides read cache sizing and promotion threshold.
func (b *Builder) WithCacheOptions(opts CacheOptions) *Builder {
	b.cacheOpts = opts
	return b
}

// WithSchema attaches a JSON Schema document; every loaded or reloaded
// tree must satisfy it before being published.
func (b *Builder) WithSchema(source []byte) *Builder {
	b.schema, b.schemaErr = NewSchema(source)
	return b
}

// WithAuditSink adds an audit destination. Multiple sinks all receive
// every event.
func (b *Builder) WithAuditSink(sink slog.Handler) *Builder {
	if sink != nil {
		b.sinks = append(b.sinks, sink)
	}
	return b
}

// WithActor names the principal attributed in audit events.
func (b *Builder) WithActor(actor string) *Builder {
	b.actor = actor
	return b
}

// WithLogger sets the logger used for internal diagnostics.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTagName sets the struct tag consulted by Scan and WithDefaults.
// Default "conf".
func (b *Builder) WithTagName(name string) *Builder {
	if name != "" {
		b.tagName = name
	}
	return b
}

// WithHotReload starts watching the bound file after a successful load.
// The callback, when non-nil, observes every reload attempt.
func (b *Builder) WithHotReload(cb ReloadCallback) *Builder {
	b.watch = true
	b.watchCb = cb
	return b
}

// WithValidator adds a custom check run at the end of Build, after
// loading and schema validation. Validators run in the order added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build assembles the Config. A missing configuration file is not fatal;
// Build returns the config together with ErrConfigNotFound so callers can
// decide whether running on defaults alone is acceptable.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.defaultsErr != nil {
		return nil, fmt.Errorf("defaults: %w", b.defaultsErr)
	}
	if b.schemaErr != nil {
		return nil, fmt.Errorf("schema: %w", b.schemaErr)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store := NewStore(Table(), logger)
	cache, err := NewCache(store, b.cacheOpts)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		store:   store,
		cache:   cache,
		logger:  logger,
		schema:  b.schema,
		tagName: b.tagName,
	}
	if len(b.sinks) > 0 {
		cfg.audit = NewAuditRecorder(b.sinks...)
		store.SetAudit(cfg.audit)
	}
	if b.actor != "" {
		store.SetActor(b.actor)
	}
	if b.envOpts != nil {
		cfg.env = NewEnvResolver(cache, *b.envOpts)
	}

	// Defaults first, in the order given, each layer shadowing the last.
	for _, t := range b.defaults {
		if err := store.Merge(t, MergeOverride); err != nil {
			return nil, fmt.Errorf("apply defaults: %w", err)
		}
	}

	file := b.file
	if file == "" && b.discover != nil {
		if found, derr := Discover(*b.discover); derr == nil {
			file = found
		}
	}

	var loadErr error
	if file != "" {
		if b.format != "" {
			loadErr = cfg.loadAs(file, b.format)
		} else {
			loadErr = cfg.Load(file)
		}
		if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
			return nil, loadErr
		}
	}

	// Loading swapped the tree out from under the defaults; fold them
	// back in underneath the file values.
	if loadErr == nil && file != "" {
		for _, t := range b.defaults {
			if err := store.Merge(t, MergeAdditive); err != nil {
				return nil, fmt.Errorf("reapply defaults: %w", err)
			}
		}
		cache.InvalidateAll()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, validator := range b.validators {
		if err := validator(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	if b.watch {
		if err := cfg.Watch(b.watchCb); err != nil {
			return nil, err
		}
	}

	// nil or ErrConfigNotFound
	return cfg, loadErr
}

// MustBuild is like Build but panics on error. A missing configuration
// file does not panic; the application proceeds on defaults.
func (b *Builder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return cfg
}

// BuildAndScan builds and decodes the final tree into target.
func (b *Builder) BuildAndScan(target any) error {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}
	if serr := cfg.Unmarshal(target); serr != nil {
		return fmt.Errorf("scan final config into target: %w", serr)
	}
	return err
}

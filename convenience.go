// File: confforge/conf/convenience.go
package conf

import (
	"errors"
	"fmt"
	"strings"
)

// Quick creates a fully configured Config instance with a single call.
// This is the recommended way to initialize configuration for most
// applications: defaults from a tagged struct, a config file, and
// environment overrides under the given prefix.
func Quick(structDefaults any, envPrefix, configFile string) (*Config, error) {
	b := NewBuilder()
	if structDefaults != nil {
		b.WithDefaults(structDefaults)
	}
	if envPrefix != "" {
		b.WithEnvOverrides(envPrefix)
	}
	if configFile != "" {
		b.WithFile(configFile)
	}
	return b.Build()
}

// MustQuick is like Quick but panics on error other than a missing file.
func MustQuick(structDefaults any, envPrefix, configFile string) *Config {
	cfg, err := Quick(structDefaults, envPrefix, configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// Require checks that all named paths resolve to a value, environment
// overrides included.
func (c *Config) Require(paths ...string) error {
	var missing []string
	for _, path := range paths {
		if !c.Contains(path) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Debug returns a formatted dump of every leaf path, its value and its
// effective environment override name. Secure paths are redacted.
func (c *Config) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	root := c.store.Root()
	for _, path := range root.Paths() {
		v, err := root.Get(path)
		if err != nil {
			continue
		}
		shown := v.String()
		if c.store.IsSecure(path) {
			shown = redactedPlaceholder
		}
		b.WriteString(fmt.Sprintf("  %s: %s", path, shown))
		if name := c.EnvName(path); name != "" {
			b.WriteString(fmt.Sprintf(" (env %s)", name))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Clone creates an independent deep copy of the configuration tree in a
// fresh Config. Cache state, env resolver, audit wiring and any active
// watch are not carried over.
func (c *Config) Clone() *Config {
	clone := New()
	clone.tagName = c.tagName
	clone.schema = c.schema
	clone.store.SwapRoot(c.store.Root().Clone())
	return clone
}

// File: confforge/conf/doc.go

// Package conf provides thread-safe multi-format configuration management
// for Go applications: one canonical value tree behind dot-separated path
// access, with environment overrides, a two-tier read cache and hot
// reload.
//
// Features:
//   - Canonical tagged value tree shared by every format adapter
//   - Dot-separated path resolution with flat dotted-key fallback
//   - Merge strategies for layering trees (override, additive, secure)
//   - Two-tier read cache with generation-based invalidation
//   - Environment variable overrides with a TTL lookup cache
//   - Debounced hot reload with atomic tree swap, fail-static on errors
//   - JSON Schema validation and struct decoding with tag support
//   - Audit trail of loads, saves and changes with secret redaction
//
// Quick Start:
//
//	type Settings struct {
//	    Server struct {
//	        Host string `conf:"host"`
//	        Port int    `conf:"port"`
//	    } `conf:"server"`
//	}
//
//	defaults := Settings{}
//	defaults.Server.Host = "localhost"
//	defaults.Server.Port = 8080
//
//	cfg, err := conf.Quick(defaults, "MYAPP_", "config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := cfg.String("server.host")
//	port, _ := cfg.Int64("server.port")
//
// Resolution order (highest to lowest):
//  1. Environment variables (MYAPP_SERVER_PORT=9090)
//  2. Configuration file (config.toml, or any registered format)
//  3. Default values
//
// Format adapters live in the format subpackage and register themselves
// on import, in the manner of database/sql drivers:
//
//	import _ "github.com/confforge/conf/format"
//
// Thread Safety:
// All operations are thread-safe. Reads run concurrently under a shared
// lock; whole-tree updates swap an immutable root so in-flight readers
// never observe a partially built tree.
package conf

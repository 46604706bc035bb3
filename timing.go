// FILE: confforge/conf/timing.go
package conf

import "time"

// Core timing constants. These define the fundamental timing behavior of
// the engine; the debounce window is the only time-based control on the
// reload path and is fixed, not adaptive.
const (
	// DefaultDebounce is the file change coalescence period.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultEnvCacheTTL bounds how long environment lookups are trusted.
	DefaultEnvCacheTTL = 30 * time.Second
)

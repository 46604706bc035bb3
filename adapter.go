// FILE: confforge/conf/adapter.go
package conf

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Adapter translates between one textual format and the canonical Value
// tree. Parse must be all-or-nothing: malformed text yields a ParseError
// and no partial tree. Marshal round-trips every Value variant expressible
// in the format; parse-only adapters return ErrMarshalUnsupported.
type Adapter interface {
	Name() string
	Parse(data []byte) (*Value, error)
	Marshal(v *Value) ([]byte, error)

	// Sniff reports whether the content looks like this format. Used for
	// detection when the file extension is not conclusive.
	Sniff(data []byte) bool
}

var (
	adapterMu    sync.RWMutex
	adapters     = make(map[string]Adapter)
	adapterOrder []string
	extensions   = make(map[string]string) // ".toml" -> "toml"
)

// RegisterAdapter makes a format adapter available to Load, Save and
// detection, keyed by its name and the given file extensions. Adapters
// register themselves from the format package's init, in the manner of
// database/sql drivers; importing github.com/confforge/conf/format wires
// the full set.
func RegisterAdapter(a Adapter, exts ...string) {
	adapterMu.Lock()
	defer adapterMu.Unlock()
	name := a.Name()
	if _, dup := adapters[name]; !dup {
		adapterOrder = append(adapterOrder, name)
	}
	adapters[name] = a
	for _, ext := range exts {
		extensions[strings.ToLower(ext)] = name
	}
}

// AdapterFor returns the adapter registered under the given format name.
func AdapterFor(name string) (Adapter, error) {
	adapterMu.RLock()
	defer adapterMu.RUnlock()
	a, ok := adapters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for format %q (import the format package)", name)
	}
	return a, nil
}

// DetectAdapter picks an adapter for a file: extension first, content
// sniffing second, falling back to the "conf" adapter when nothing else
// claims the input.
func DetectAdapter(path string, data []byte) (Adapter, error) {
	adapterMu.RLock()
	defer adapterMu.RUnlock()

	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if name, ok := extensions[ext]; ok {
			return adapters[name], nil
		}
	}
	for _, name := range adapterOrder {
		if a := adapters[name]; a.Sniff(data) {
			return a, nil
		}
	}
	if a, ok := adapters["conf"]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unable to determine format for %q", path)
}

// RegisteredFormats lists the registered adapter names in registration
// order.
func RegisteredFormats() []string {
	adapterMu.RLock()
	defer adapterMu.RUnlock()
	out := make([]string, len(adapterOrder))
	copy(out, adapterOrder)
	return out
}

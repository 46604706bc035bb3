// File: confforge/conf/format/hcl.go
package format

import (
	"strings"

	"github.com/hashicorp/hcl"

	"github.com/confforge/conf"
)

// hclAdapter parses HCL 1 configuration. Parse-only: the canonical tree
// does not retain enough block structure for faithful HCL output.
type hclAdapter struct{}

func (hclAdapter) Name() string { return "hcl" }

func (hclAdapter) Sniff(data []byte) bool {
	// Block syntax: identifier followed by an opening brace
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		return strings.IndexByte(line, '{') > 0 && !strings.Contains(line, ": ")
	}
	return false
}

func (hclAdapter) Parse(data []byte) (*conf.Value, error) {
	var raw map[string]any
	if err := hcl.Unmarshal(data, &raw); err != nil {
		return nil, &conf.ParseError{Format: "hcl", Err: err}
	}
	return conf.FromInterface(normalizeHCL(raw))
}

func (hclAdapter) Marshal(v *conf.Value) ([]byte, error) {
	return nil, conf.ErrMarshalUnsupported
}

// normalizeHCL collapses the single-element block lists the HCL decoder
// produces for nested blocks into plain tables.
func normalizeHCL(raw any) any {
	switch t := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalizeHCL(v)
		}
		return out
	case []map[string]any:
		if len(t) == 1 {
			return normalizeHCL(t[0])
		}
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeHCL(item))
		}
		return out
	case []any:
		if len(t) == 1 {
			if m, ok := t[0].(map[string]any); ok {
				return normalizeHCL(m)
			}
		}
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeHCL(item))
		}
		return out
	default:
		return raw
	}
}

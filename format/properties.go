// File: confforge/conf/format/properties.go
package format

import (
	"bytes"
	"strings"

	"github.com/magiconair/properties"

	"github.com/confforge/conf"
)

// propertiesAdapter handles Java-style .properties files. Dotted keys
// are kept flat; the flat-key fallback in path resolution makes them
// addressable as nested paths anyway.
type propertiesAdapter struct{}

func (propertiesAdapter) Name() string { return "properties" }

func (propertiesAdapter) Sniff(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			return false
		}
		// Classic java.util.Properties shape: dotted key tight against the
		// separator. Looser key = value lines belong to the conf fallback.
		sep := strings.IndexAny(line, "=:")
		if sep <= 0 {
			return false
		}
		key := line[:sep]
		return strings.Contains(key, ".") && !strings.ContainsAny(key, " \t")
	}
	return false
}

func (propertiesAdapter) Parse(data []byte) (*conf.Value, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, &conf.ParseError{Format: "properties", Err: err}
	}
	root := conf.Table()
	for _, key := range p.Keys() {
		raw, _ := p.Get(key)
		root.TableSet(key, conf.CoerceScalar(raw))
	}
	return root, nil
}

func (propertiesAdapter) Marshal(v *conf.Value) ([]byte, error) {
	root := v
	if !root.IsTable() {
		return nil, &conf.ParseError{Format: "properties", Msg: "can only marshal a table root"}
	}
	p := properties.NewProperties()
	for _, path := range root.Paths() {
		leaf, err := root.Get(path)
		if err != nil || leaf.IsTable() {
			continue
		}
		text, err := propertiesText(leaf)
		if err != nil {
			return nil, err
		}
		p.Set(path, text)
	}
	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// propertiesText flattens one leaf to its textual form. Arrays become
// comma separated lists, nulls empty strings.
func propertiesText(v *conf.Value) (string, error) {
	switch v.Kind() {
	case conf.KindNull:
		return "", nil
	case conf.KindArray:
		items, _ := v.AsArray()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			text, err := propertiesText(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, ","), nil
	default:
		return v.AsString()
	}
}

// File: confforge/conf/format/toml.go
package format

import (
	"bytes"
	"errors"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/confforge/conf"
)

type tomlAdapter struct{}

func (tomlAdapter) Name() string { return "toml" }

func (tomlAdapter) Sniff(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Table headers and dotted bare keys with '=' are strong hints;
		// a ':' separator wins for YAML instead.
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			return true
		}
		return strings.Contains(line, " = ") && strings.Contains(line, `"`)
	}
	return false
}

func (tomlAdapter) Parse(data []byte) (*conf.Value, error) {
	m := make(map[string]any)
	if err := toml.Unmarshal(data, &m); err != nil {
		perr := &conf.ParseError{Format: "toml", Err: err}
		var te toml.ParseError
		if errors.As(err, &te) {
			perr.Line = te.Position.Line
			perr.Msg = te.Message
		}
		return nil, perr
	}
	return conf.FromInterface(m)
}

func (tomlAdapter) Marshal(v *conf.Value) ([]byte, error) {
	m, err := rootTable(v, "toml")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// File: confforge/conf/format/yaml.go
package format

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/confforge/conf"
)

type yamlAdapter struct{}

func (yamlAdapter) Name() string { return "yaml" }

func (yamlAdapter) Sniff(data []byte) bool {
	if strings.HasPrefix(string(data), "---") {
		return true
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// "key: value" or "key:" block shape without an '=' in sight
		colon := strings.Index(line, ":")
		if colon <= 0 {
			return false
		}
		rest := line[colon+1:]
		return (rest == "" || strings.HasPrefix(rest, " ")) && !strings.Contains(line, "=")
	}
	return false
}

func (yamlAdapter) Parse(data []byte) (*conf.Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &conf.ParseError{Format: "yaml", Err: err}
	}
	if raw == nil {
		return conf.Table(), nil
	}
	v, err := conf.FromInterface(raw)
	if err != nil {
		return nil, &conf.ParseError{Format: "yaml", Err: err}
	}
	if !v.IsTable() {
		return nil, &conf.ParseError{Format: "yaml", Msg: "document root must be a mapping"}
	}
	return v, nil
}

func (yamlAdapter) Marshal(v *conf.Value) ([]byte, error) {
	return yaml.Marshal(v.Interface())
}

// File: confforge/conf/format/json.go
package format

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/confforge/conf"
)

type jsonAdapter struct{}

func (jsonAdapter) Name() string { return "json" }

func (jsonAdapter) Sniff(data []byte) bool {
	// Only object roots; '[' would shadow TOML and INI section headers,
	// and Parse rejects array roots anyway.
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (jsonAdapter) Parse(data []byte) (*conf.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &conf.ParseError{Format: "json", Err: err}
	}
	// Reject trailing garbage after the document
	if dec.More() {
		return nil, &conf.ParseError{Format: "json", Msg: "trailing data after document"}
	}

	v, err := conf.FromInterface(raw)
	if err != nil {
		return nil, &conf.ParseError{Format: "json", Err: err}
	}
	if !v.IsTable() {
		return nil, &conf.ParseError{Format: "json", Msg: "document root must be an object"}
	}
	return v, nil
}

func (jsonAdapter) Marshal(v *conf.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.Interface()); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(buf.String(), "\n") + "\n"), nil
}

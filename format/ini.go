// File: confforge/conf/format/ini.go
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/confforge/conf"
)

// iniAdapter handles classic INI files: [section] headers, key=value or
// key:value pairs, ';' and '#' comments, quoted values with escapes.
// Section membership is recorded as a flat dotted key ("section.key"),
// preserving the flat shape INI tooling expects.
type iniAdapter struct{}

func (iniAdapter) Name() string { return "ini" }

func (iniAdapter) Sniff(data []byte) bool {
	sawSection := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sawSection = true
			continue
		}
		return sawSection && strings.ContainsAny(line, "=:")
	}
	return false
}

func (iniAdapter) Parse(data []byte) (*conf.Value, error) {
	root := conf.Table()
	section := ""

	for n, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, &conf.ParseError{Format: "ini", Line: n + 1, Msg: "unterminated section header"}
			}
			section = strings.TrimSpace(line[1:end])
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			return nil, &conf.ParseError{Format: "ini", Line: n + 1, Msg: fmt.Sprintf("expected '=' or ':' in %q", line)}
		}
		key := strings.TrimSpace(line[:sep])
		if key == "" {
			return nil, &conf.ParseError{Format: "ini", Line: n + 1, Msg: "empty key"}
		}
		val := parseINIValue(strings.TrimSpace(line[sep+1:]))

		full := key
		if section != "" {
			full = section + "." + key
		}
		root.TableSet(full, val)
	}
	return root, nil
}

func (iniAdapter) Marshal(v *conf.Value) ([]byte, error) {
	table, err := v.AsTable()
	if err != nil {
		return nil, err
	}

	// Group flat dotted keys into sections by first segment; everything
	// else stays at the top.
	top := make(map[string]*conf.Value)
	sections := make(map[string]map[string]*conf.Value)
	for _, key := range sortedKeys(table) {
		val := table[key]
		if val.IsTable() {
			nested, _ := val.AsTable()
			sec := sections[key]
			if sec == nil {
				sec = make(map[string]*conf.Value)
				sections[key] = sec
			}
			if err := flattenInto(sec, "", nested); err != nil {
				return nil, err
			}
			continue
		}
		if dot := strings.Index(key, "."); dot > 0 {
			name, rest := key[:dot], key[dot+1:]
			sec := sections[name]
			if sec == nil {
				sec = make(map[string]*conf.Value)
				sections[name] = sec
			}
			sec[rest] = val
			continue
		}
		top[key] = val
	}

	var sb strings.Builder
	for _, key := range sortedKeys(top) {
		writeINIPair(&sb, key, top[key])
	}
	sectionNames := make([]string, 0, len(sections))
	for name := range sections {
		sectionNames = append(sectionNames, name)
	}
	for _, name := range sortedStrings(sectionNames) {
		sb.WriteString("\n[")
		sb.WriteString(name)
		sb.WriteString("]\n")
		sec := sections[name]
		for _, key := range sortedKeys(sec) {
			writeINIPair(&sb, key, sec[key])
		}
	}
	return []byte(sb.String()), nil
}

// flattenInto lowers a nested table to dotted keys within one section.
func flattenInto(dst map[string]*conf.Value, prefix string, table map[string]*conf.Value) error {
	for key, val := range table {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if val.IsTable() {
			nested, _ := val.AsTable()
			if err := flattenInto(dst, full, nested); err != nil {
				return err
			}
			continue
		}
		dst[full] = val
	}
	return nil
}

func writeINIPair(sb *strings.Builder, key string, v *conf.Value) {
	sb.WriteString(key)
	sb.WriteString(" = ")
	sb.WriteString(iniText(v))
	sb.WriteByte('\n')
}

func iniText(v *conf.Value) string {
	switch v.Kind() {
	case conf.KindNull:
		return ""
	case conf.KindString:
		s, _ := v.AsString()
		if strings.ContainsAny(s, " \t;#") || s == "" {
			return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		return s
	case conf.KindArray:
		items, _ := v.AsArray()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, iniText(item))
		}
		return strings.Join(parts, ", ")
	default:
		s, _ := v.AsString()
		return s
	}
}

// parseINIValue types a raw INI value: quoted text stays a string with
// escapes applied, bare words coerce through boolean (including 1/0,
// yes/no, on/off), integer and float.
func parseINIValue(raw string) *conf.Value {
	if raw == "" {
		return conf.String("")
	}

	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return conf.String(unescapeINI(raw[1 : len(raw)-1]))
	}

	// Strip trailing comments from unquoted values
	if i := strings.IndexAny(raw, ";#"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	switch strings.ToLower(raw) {
	case "true", "yes", "on", "1":
		return conf.Bool(true)
	case "false", "no", "off", "0":
		return conf.Bool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return conf.Integer(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return conf.Float(f)
	}
	return conf.String(unescapeINI(raw))
}

func unescapeINI(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"', '\'':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

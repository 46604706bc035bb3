// File: confforge/conf/format/conf.go
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/confforge/conf"
)

// confAdapter handles the plain key = value format common to Unix
// daemons: # comments, [section] headers, quoted strings, bracketed or
// space separated arrays, bare booleans (true/yes/on, false/no/off) and
// null/nil literals.
type confAdapter struct{}

func (confAdapter) Name() string { return "conf" }

func (confAdapter) Sniff(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}
		return strings.Contains(line, "=") && !strings.Contains(line, ": ")
	}
	return false
}

func (confAdapter) Parse(data []byte) (*conf.Value, error) {
	p := &confParser{input: string(data), line: 1}
	return p.parse()
}

func (confAdapter) Marshal(v *conf.Value) ([]byte, error) {
	table, err := v.AsTable()
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := writeConfTable(&sb, table, ""); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// writeConfTable emits scalars first, then each nested table as a
// [section] with its full dotted name.
func writeConfTable(sb *strings.Builder, table map[string]*conf.Value, prefix string) error {
	keys := sortedKeys(table)
	for _, key := range keys {
		val := table[key]
		if val.IsTable() {
			continue
		}
		formatted, err := formatConfValue(val)
		if err != nil {
			return err
		}
		sb.WriteString(key)
		sb.WriteString(" = ")
		sb.WriteString(formatted)
		sb.WriteByte('\n')
	}
	for _, key := range keys {
		val := table[key]
		if !val.IsTable() {
			continue
		}
		section := key
		if prefix != "" {
			section = prefix + "." + key
		}
		sb.WriteString("\n[")
		sb.WriteString(section)
		sb.WriteString("]\n")
		nested, _ := val.AsTable()
		if err := writeConfTable(sb, nested, section); err != nil {
			return err
		}
	}
	return nil
}

func formatConfValue(v *conf.Value) (string, error) {
	switch v.Kind() {
	case conf.KindNull:
		return "null", nil
	case conf.KindBool, conf.KindInteger, conf.KindFloat:
		return v.AsString()
	case conf.KindString:
		s, _ := v.AsString()
		if strings.ContainsAny(s, " \t\n") {
			return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`, nil
		}
		return s, nil
	case conf.KindArray:
		items, _ := v.AsArray()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			formatted, err := formatConfValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, formatted)
		}
		return strings.Join(parts, " "), nil
	default:
		return "", &conf.ParseError{Format: "conf", Msg: "cannot serialize nested table as value"}
	}
}

type confParser struct {
	input string
	pos   int
	line  int
}

func (p *confParser) parse() (*conf.Value, error) {
	root := conf.Table()
	var section string

	for !p.atEnd() {
		p.skipBlank()
		if p.atEnd() {
			break
		}

		if p.peek() == '[' {
			name, err := p.sectionHeader()
			if err != nil {
				return nil, err
			}
			section = name
			continue
		}

		key, val, err := p.keyValue()
		if err != nil {
			return nil, err
		}
		if section != "" {
			st, ok := root.TableGet(section)
			if !ok || !st.IsTable() {
				st = conf.Table()
				root.TableSet(section, st)
			}
			st.TableSet(key, val)
		} else {
			root.TableSet(key, val)
		}
	}
	return root, nil
}

func (p *confParser) sectionHeader() (string, error) {
	p.pos++ // consume '['
	start := p.pos
	for !p.atEnd() && p.peek() != ']' {
		if p.peek() == '\n' {
			return "", p.errf("unterminated section header")
		}
		p.pos++
	}
	if p.atEnd() {
		return "", p.errf("unterminated section header")
	}
	name := strings.TrimSpace(p.input[start:p.pos])
	p.pos++ // consume ']'
	return name, nil
}

func (p *confParser) keyValue() (string, *conf.Value, error) {
	key := p.key()
	if key == "" {
		return "", nil, p.errf("expected key name")
	}
	p.skipSpace()
	if p.atEnd() || p.peek() != '=' {
		return "", nil, p.errf("expected '=' after key %q", key)
	}
	p.pos++
	p.skipSpace()
	val, err := p.value()
	return key, val, err
}

func (p *confParser) key() string {
	start := p.pos
	for !p.atEnd() {
		c := p.peek()
		if c == '_' || c == '-' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *confParser) value() (*conf.Value, error) {
	if !p.atEnd() {
		switch p.peek() {
		case '"':
			return p.quotedString()
		case '\'':
			return p.singleQuoted()
		case '[':
			return p.bracketArray()
		}
	}
	return p.unquoted()
}

func (p *confParser) quotedString() (*conf.Value, error) {
	p.pos++ // consume '"'
	var sb strings.Builder
	for !p.atEnd() && p.peek() != '"' {
		c := p.peek()
		if c == '\\' {
			p.pos++
			if p.atEnd() {
				return nil, p.errf("unterminated escape sequence")
			}
			switch p.peek() {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(p.peek())
			}
			p.pos++
			continue
		}
		if c == '\n' {
			p.line++
		}
		sb.WriteByte(c)
		p.pos++
	}
	if p.atEnd() {
		return nil, p.errf("unterminated string")
	}
	p.pos++ // consume '"'
	return conf.String(sb.String()), nil
}

func (p *confParser) singleQuoted() (*conf.Value, error) {
	p.pos++ // consume '\''
	start := p.pos
	for !p.atEnd() && p.peek() != '\'' {
		if p.peek() == '\n' {
			p.line++
		}
		p.pos++
	}
	if p.atEnd() {
		return nil, p.errf("unterminated string")
	}
	s := p.input[start:p.pos]
	p.pos++
	return conf.String(s), nil
}

func (p *confParser) bracketArray() (*conf.Value, error) {
	p.pos++ // consume '['
	var items []*conf.Value
	p.skipSpace()
	if !p.atEnd() && p.peek() == ']' {
		p.pos++
		return conf.Array(items...), nil
	}
	for {
		item, err := p.arrayElement()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		if p.atEnd() {
			return nil, p.errf("expected ',' or ']' in array")
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
		case ']':
			p.pos++
			return conf.Array(items...), nil
		default:
			return nil, p.errf("expected ',' or ']' in array")
		}
	}
}

// arrayElement reads one value in bracket context, where an unquoted
// token ends at ',' or ']' rather than at the end of the line.
func (p *confParser) arrayElement() (*conf.Value, error) {
	if p.atEnd() {
		return nil, p.errf("expected value in array")
	}
	switch p.peek() {
	case '"':
		return p.quotedString()
	case '\'':
		return p.singleQuoted()
	case '[':
		return p.bracketArray()
	}
	start := p.pos
	for !p.atEnd() {
		c := p.peek()
		if c == ',' || c == ']' || c == ' ' || c == '\t' ||
			c == '\n' || c == '\r' || c == '#' {
			break
		}
		p.pos++
	}
	raw := p.input[start:p.pos]
	if raw == "" {
		return nil, p.errf("expected value in array")
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return conf.Bool(true), nil
	case "false", "no", "off":
		return conf.Bool(false), nil
	case "null", "nil":
		return conf.Null(), nil
	}
	return simpleConfValue(raw), nil
}

func (p *confParser) unquoted() (*conf.Value, error) {
	start := p.pos
	for !p.atEnd() {
		c := p.peek()
		if c == '\n' || c == '\r' || c == '#' {
			break
		}
		p.pos++
	}
	raw := strings.TrimSpace(p.input[start:p.pos])
	if raw == "" {
		return conf.Null(), nil
	}

	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return conf.Bool(true), nil
	case "false", "no", "off":
		return conf.Bool(false), nil
	case "null", "nil":
		return conf.Null(), nil
	}

	// Space or comma separated arrays
	if strings.ContainsAny(raw, " ,") {
		fields := strings.FieldsFunc(raw, func(r rune) bool {
			return r == ' ' || r == ','
		})
		if len(fields) > 1 {
			items := make([]*conf.Value, 0, len(fields))
			for _, f := range fields {
				items = append(items, simpleConfValue(f))
			}
			return conf.Array(items...), nil
		}
	}
	return simpleConfValue(raw), nil
}

func simpleConfValue(raw string) *conf.Value {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return conf.Integer(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return conf.Float(f)
	}
	return conf.String(raw)
}

func (p *confParser) atEnd() bool { return p.pos >= len(p.input) }

func (p *confParser) peek() byte { return p.input[p.pos] }

func (p *confParser) skipSpace() {
	for !p.atEnd() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

// skipBlank advances over whitespace, newlines and # comments.
func (p *confParser) skipBlank() {
	for !p.atEnd() {
		switch p.peek() {
		case ' ', '\t', '\r':
			p.pos++
		case '\n':
			p.line++
			p.pos++
		case '#':
			for !p.atEnd() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *confParser) errf(format string, args ...any) error {
	return &conf.ParseError{Format: "conf", Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

// FILE: confforge/conf/value.go
package conf

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindTable
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// Value is the canonical representation of configuration data. Every format
// adapter parses into a Value tree, and all path operations navigate it.
// Values returned from the read API must be treated as read-only; mutate
// only through Set/Remove on the owning store.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	a    []*Value
	t    map[string]*Value
}

// Null returns the null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Integer wraps an int64.
func Integer(i int64) *Value { return &Value{kind: KindInteger, i: i} }

// Float wraps a float64.
func Float(f float64) *Value { return &Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// Array wraps an ordered sequence of values.
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, a: items}
}

// Table returns an empty table.
func Table() *Value {
	return &Value{kind: KindTable, t: make(map[string]*Value)}
}

// TableOf wraps an existing key-to-value map as a table.
func TableOf(m map[string]*Value) *Value {
	if m == nil {
		m = make(map[string]*Value)
	}
	return &Value{kind: KindTable, t: m}
}

// Kind reports which variant the value holds. A nil value reads as null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is the null variant.
func (v *Value) IsNull() bool { return v.kind == KindNull }

// IsTable reports whether the value is a table.
func (v *Value) IsTable() bool { return v.kind == KindTable }

// IsArray reports whether the value is an array.
func (v *Value) IsArray() bool { return v.kind == KindArray }

// AsBool converts the value to a boolean. Strings accept the usual
// truthy/falsy spellings ("true", "yes", "1", "on" and their negations).
func (v *Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindString:
		switch strings.ToLower(v.s) {
		case "true", "yes", "1", "on":
			return true, nil
		case "false", "no", "0", "off":
			return false, nil
		}
	}
	return false, &TypeError{Want: "bool", Got: v.kind, Value: v.text()}
}

// AsInteger converts the value to an int64. Floats convert only when they
// carry no fractional part; numeric strings parse in base 10. Conversions
// never truncate.
func (v *Value) AsInteger() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindFloat:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f <= math.MaxInt64 {
			return int64(v.f), nil
		}
	case KindString:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, &TypeError{Want: "integer", Got: v.kind, Value: v.text()}
}

// AsFloat converts the value to a float64. Integers convert only when the
// round trip is exact, so precision is never silently lost.
func (v *Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInteger:
		f := float64(v.i)
		// The range guard keeps int64(f) defined before the round-trip
		// equality check.
		if f >= math.MinInt64 && f < math.MaxInt64 && int64(f) == v.i {
			return f, nil
		}
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f, nil
		}
	}
	return 0, &TypeError{Want: "float", Got: v.kind, Value: v.text()}
}

// AsString converts the value to its string representation. Scalars format
// losslessly; null, arrays and tables have no string rule.
func (v *Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindInteger:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	}
	return "", &TypeError{Want: "string", Got: v.kind, Value: v.text()}
}

// AsArray returns the underlying items of an array value.
func (v *Value) AsArray() ([]*Value, error) {
	if v.kind != KindArray {
		return nil, &TypeError{Want: "array", Got: v.kind, Value: v.text()}
	}
	return v.a, nil
}

// AsTable returns the underlying map of a table value.
func (v *Value) AsTable() (map[string]*Value, error) {
	if v.kind != KindTable {
		return nil, &TypeError{Want: "table", Got: v.kind, Value: v.text()}
	}
	return v.t, nil
}

// TableGet looks up a direct key of a table. Returns false for non-tables.
func (v *Value) TableGet(key string) (*Value, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	val, ok := v.t[key]
	return val, ok
}

// TableSet inserts or replaces a direct key of a table.
func (v *Value) TableSet(key string, val *Value) error {
	if v.kind != KindTable {
		return &TypeError{Want: "table", Got: v.kind, Value: v.text()}
	}
	v.t[key] = val
	return nil
}

// Keys returns the table's keys sorted. Key order is irrelevant for lookup
// but deterministic for serialization.
func (v *Value) Keys() []string {
	if v.kind != KindTable {
		return nil
	}
	keys := make([]string, 0, len(v.t))
	for k := range v.t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of items in an array or entries in a table.
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.a)
	case KindTable:
		return len(v.t)
	}
	return 0
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	switch v.kind {
	case KindArray:
		items := make([]*Value, len(v.a))
		for i, item := range v.a {
			items[i] = item.Clone()
		}
		return &Value{kind: KindArray, a: items}
	case KindTable:
		m := make(map[string]*Value, len(v.t))
		for k, val := range v.t {
			m[k] = val.Clone()
		}
		return &Value{kind: KindTable, t: m}
	default:
		c := *v
		return &c
	}
}

// Equal reports deep structural equality.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInteger:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.t) != len(other.t) {
			return false
		}
		for k, val := range v.t {
			o, ok := other.t[k]
			if !ok || !val.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface unwraps the value into plain Go types: nil, bool, int64,
// float64, string, []any and map[string]any.
func (v *Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		items := make([]any, len(v.a))
		for i, item := range v.a {
			items[i] = item.Interface()
		}
		return items
	case KindTable:
		m := make(map[string]any, len(v.t))
		for k, val := range v.t {
			m[k] = val.Interface()
		}
		return m
	}
	return nil
}

// FromInterface builds a Value from the plain Go shapes produced by the
// stock decoders (encoding/json with UseNumber, yaml.v3, BurntSushi/toml,
// hcl). Unsupported types are an error, never a silent string-ification.
func FromInterface(raw any) (*Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		return Integer(int64(x)), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, &TypeError{Want: "integer", Got: KindInteger, Value: strconv.FormatUint(x, 10)}
		}
		return Integer(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339)), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, &TypeError{Want: "float", Got: KindString, Value: x.String()}
		}
		return Float(f), nil
	case []any:
		items := make([]*Value, len(x))
		for i, item := range x {
			v, err := FromInterface(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case []string:
		items := make([]*Value, len(x))
		for i, s := range x {
			items[i] = String(s)
		}
		return Array(items...), nil
	case map[string]any:
		t := Table()
		for k, item := range x {
			v, err := FromInterface(item)
			if err != nil {
				return nil, err
			}
			t.t[k] = v
		}
		return t, nil
	case map[any]any:
		t := Table()
		for k, item := range x {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("table key %v is not a string", k)
			}
			v, err := FromInterface(item)
			if err != nil {
				return nil, err
			}
			t.t[key] = v
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", raw)
}

// CoerceScalar interprets a raw string the way environment overrides and
// line-oriented formats do: integer first, then float, then the literal
// booleans "true"/"false", else string. The first matching rule wins.
func CoerceScalar(raw string) *Value {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Integer(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f)
	}
	switch raw {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(raw)
}

// String renders a compact human-readable form, mainly for logs and tests.
func (v *Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v *Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'f', -1, 64))
	case KindString:
		sb.WriteString(v.s)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.a {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeTo(sb)
		}
		sb.WriteByte(']')
	case KindTable:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			v.t[k].writeTo(sb)
		}
		sb.WriteByte('}')
	}
}

// text is the short form used in error messages.
func (v *Value) text() string {
	if v == nil {
		return "<nil>"
	}
	if v.kind == KindArray || v.kind == KindTable {
		return v.kind.String()
	}
	return v.String()
}

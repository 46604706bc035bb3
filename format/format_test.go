// FILE: confforge/conf/format/format_test.go
package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confforge/conf"
)

func mustParse(t *testing.T, a conf.Adapter, src string) *conf.Value {
	t.Helper()
	v, err := a.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

func pathString(t *testing.T, v *conf.Value, path string) string {
	t.Helper()
	got, err := v.Get(path)
	require.NoError(t, err)
	s, err := got.AsString()
	require.NoError(t, err)
	return s
}

func pathInt(t *testing.T, v *conf.Value, path string) int64 {
	t.Helper()
	got, err := v.Get(path)
	require.NoError(t, err)
	i, err := got.AsInteger()
	require.NoError(t, err)
	return i
}

func TestConfParse(t *testing.T) {
	src := `
# daemon settings
host = localhost
port = 8080
ratio = 0.75
enabled = yes
disabled = off
empty = null
motd = "hello world"
raw = 'no \n escapes'
tags = alpha beta gamma
ports = 80, 443
matrix = [1, 2, 3]

[server]
workers = 4
`
	v := mustParse(t, confAdapter{}, src)

	assert.Equal(t, "localhost", pathString(t, v, "host"))
	assert.Equal(t, int64(8080), pathInt(t, v, "port"))

	ratio, err := v.Get("ratio")
	require.NoError(t, err)
	f, err := ratio.AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 0.75, f)

	enabled, err := v.Get("enabled")
	require.NoError(t, err)
	b, err := enabled.AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	disabled, err := v.Get("disabled")
	require.NoError(t, err)
	b, err = disabled.AsBool()
	require.NoError(t, err)
	assert.False(t, b)

	empty, err := v.Get("empty")
	require.NoError(t, err)
	assert.Equal(t, conf.KindNull, empty.Kind())

	assert.Equal(t, "hello world", pathString(t, v, "motd"))
	assert.Equal(t, `no \n escapes`, pathString(t, v, "raw"))

	tags, err := v.Get("tags")
	require.NoError(t, err)
	items, err := tags.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, conf.KindString, items[0].Kind())

	ports, err := v.Get("ports")
	require.NoError(t, err)
	items, err = ports.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, conf.KindInteger, items[0].Kind())

	matrix, err := v.Get("matrix")
	require.NoError(t, err)
	items, err = matrix.AsArray()
	require.NoError(t, err)
	assert.Len(t, items, 3)

	assert.Equal(t, int64(4), pathInt(t, v, "server.workers"))
}

func TestConfBracketArrays(t *testing.T) {
	src := `
mixed = [1, "two", true, null]
spaced = [ 10 , 20 , 30 ]
nested = [[1, 2], [3]]
hosts = [alpha, beta]
none = []
`
	v := mustParse(t, confAdapter{}, src)

	mixed, err := v.Get("mixed")
	require.NoError(t, err)
	items, err := mixed.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, conf.KindInteger, items[0].Kind())
	assert.Equal(t, conf.KindString, items[1].Kind())
	assert.Equal(t, conf.KindBool, items[2].Kind())
	assert.Equal(t, conf.KindNull, items[3].Kind())

	spaced, err := v.Get("spaced")
	require.NoError(t, err)
	items, err = spaced.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 3)
	i, err := items[2].AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(30), i)

	nested, err := v.Get("nested")
	require.NoError(t, err)
	items, err = nested.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 2)
	inner, err := items[0].AsArray()
	require.NoError(t, err)
	assert.Len(t, inner, 2)

	hosts, err := v.Get("hosts")
	require.NoError(t, err)
	items, err = hosts.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "beta", mustStringOf(t, items[1]))

	none, err := v.Get("none")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
}

func mustStringOf(t *testing.T, v *conf.Value) string {
	t.Helper()
	s, err := v.AsString()
	require.NoError(t, err)
	return s
}

func TestConfParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing equals":       "key value\n",
		"unterminated string":  `key = "open`,
		"unterminated section": "[server\nkey = 1\n",
		"unterminated escape":  `key = "x\`,
		"dangling array":       "key = [1, 2\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := confAdapter{}.Parse([]byte(src))
			var pe *conf.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "conf", pe.Format)
			assert.Greater(t, pe.Line, 0)
		})
	}
}

func TestConfRoundTrip(t *testing.T) {
	src := "host = localhost\nport = 8080\n\n[server]\nworkers = 4\n"
	v := mustParse(t, confAdapter{}, src)

	out, err := confAdapter{}.Marshal(v)
	require.NoError(t, err)

	again := mustParse(t, confAdapter{}, string(out))
	assert.True(t, v.Equal(again))
}

func TestConfMarshalScalarsBeforeSections(t *testing.T) {
	root := conf.Table()
	sec := conf.Table()
	sec.TableSet("workers", conf.Integer(4))
	root.TableSet("server", sec)
	root.TableSet("host", conf.String("localhost"))

	out, err := confAdapter{}.Marshal(root)
	require.NoError(t, err)
	assert.Equal(t, "host = localhost\n\n[server]\nworkers = 4\n", string(out))
}

func TestINIParse(t *testing.T) {
	src := `
; global
debug = 1
name = app

[database]
host = db.example.com
port: 5432
ssl = off
comment = value ; trailing
quoted = "a ; b"
`
	v := mustParse(t, iniAdapter{}, src)

	debug, err := v.Get("debug")
	require.NoError(t, err)
	b, err := debug.AsBool()
	require.NoError(t, err)
	assert.True(t, b, "bare 1 reads as boolean before integer")

	// Section keys live flat at the root and resolve through the
	// dotted-path fallback
	assert.Equal(t, "db.example.com", pathString(t, v, "database.host"))
	assert.Equal(t, int64(5432), pathInt(t, v, "database.port"))

	ssl, err := v.Get("database.ssl")
	require.NoError(t, err)
	b, err = ssl.AsBool()
	require.NoError(t, err)
	assert.False(t, b)

	assert.Equal(t, "value", pathString(t, v, "database.comment"))
	assert.Equal(t, "a ; b", pathString(t, v, "database.quoted"))
}

func TestINIRoundTrip(t *testing.T) {
	src := "name = app\n\n[database]\nhost = db.example.com\nport = 5432\n"
	v := mustParse(t, iniAdapter{}, src)

	out, err := iniAdapter{}.Marshal(v)
	require.NoError(t, err)

	again := mustParse(t, iniAdapter{}, string(out))
	assert.True(t, v.Equal(again))
}

func TestINIMarshalNestedTable(t *testing.T) {
	root := conf.Table()
	db := conf.Table()
	pool := conf.Table()
	pool.TableSet("size", conf.Integer(10))
	db.TableSet("pool", pool)
	root.TableSet("database", db)

	out, err := iniAdapter{}.Marshal(root)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[database]")
	assert.Contains(t, string(out), "pool.size = 10")
}

func TestPropertiesParse(t *testing.T) {
	src := "app.name=svc\napp.port=9090\napp.debug=true\n"
	v := mustParse(t, propertiesAdapter{}, src)

	assert.Equal(t, "svc", pathString(t, v, "app.name"))
	assert.Equal(t, int64(9090), pathInt(t, v, "app.port"))
}

func TestPropertiesRoundTrip(t *testing.T) {
	src := "app.name=svc\napp.port=9090\n"
	v := mustParse(t, propertiesAdapter{}, src)

	out, err := propertiesAdapter{}.Marshal(v)
	require.NoError(t, err)

	again := mustParse(t, propertiesAdapter{}, string(out))
	assert.True(t, v.Equal(again))
}

func TestJSONParse(t *testing.T) {
	v := mustParse(t, jsonAdapter{}, `{"server": {"port": 8080, "ratio": 0.5}}`)
	assert.Equal(t, int64(8080), pathInt(t, v, "server.port"))

	ratio, err := v.Get("server.ratio")
	require.NoError(t, err)
	assert.Equal(t, conf.KindFloat, ratio.Kind())
}

func TestJSONRejects(t *testing.T) {
	for name, src := range map[string]string{
		"array root":    `[1, 2]`,
		"trailing data": `{"a": 1} {"b": 2}`,
		"malformed":     `{"a": `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := jsonAdapter{}.Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	src := "host = \"localhost\"\n\n[server]\nport = 8080\n"
	v := mustParse(t, tomlAdapter{}, src)

	out, err := tomlAdapter{}.Marshal(v)
	require.NoError(t, err)

	again := mustParse(t, tomlAdapter{}, string(out))
	assert.True(t, v.Equal(again))
}

func TestTOMLParseErrorLine(t *testing.T) {
	_, err := tomlAdapter{}.Parse([]byte("good = 1\nbad = = nope\n"))
	var pe *conf.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "toml", pe.Format)
	assert.Equal(t, 2, pe.Line)
}

func TestYAMLParse(t *testing.T) {
	src := "server:\n  port: 8080\n  hosts:\n    - a\n    - b\n"
	v := mustParse(t, yamlAdapter{}, src)

	assert.Equal(t, int64(8080), pathInt(t, v, "server.port"))
	hosts, err := v.Get("server.hosts")
	require.NoError(t, err)
	assert.Equal(t, 2, hosts.Len())
}

func TestYAMLEmptyDocument(t *testing.T) {
	v := mustParse(t, yamlAdapter{}, "")
	assert.True(t, v.IsTable())
	assert.Equal(t, 0, v.Len())
}

func TestHCLParse(t *testing.T) {
	src := `
service "web" {
  port = 8080
}
region = "us-east-1"
`
	v := mustParse(t, hclAdapter{}, src)
	assert.Equal(t, "us-east-1", pathString(t, v, "region"))
	assert.Equal(t, int64(8080), pathInt(t, v, "service.web.port"))
}

func TestXMLParse(t *testing.T) {
	src := `<config>
  <server env="prod">
    <port>8080</port>
    <host>localhost</host>
  </server>
</config>`
	v := mustParse(t, xmlAdapter{}, src)

	assert.Equal(t, int64(8080), pathInt(t, v, "config.server.port"))
	assert.Equal(t, "localhost", pathString(t, v, "config.server.host"))
	assert.Equal(t, "prod", pathString(t, v, "config.server.env"))
}

func TestXMLTextCollapse(t *testing.T) {
	v := mustParse(t, xmlAdapter{}, `<root><leaf>42</leaf></root>`)
	assert.Equal(t, int64(42), pathInt(t, v, "root.leaf"))
}

func TestXMLUnclosed(t *testing.T) {
	_, err := xmlAdapter{}.Parse([]byte(`<root><open>`))
	var pe *conf.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "xml", pe.Format)
}

func TestNOMLResolution(t *testing.T) {
	t.Setenv("NOML_TEST_HOST", "envhost")

	src := `
host = env("NOML_TEST_HOST", "fallback")
missing = env("NOML_TEST_ABSENT", "fallback")
buffer = @size("4KB")
timeout = @duration("1m30s")
`
	v := mustParse(t, nomlAdapter{}, src)

	assert.Equal(t, "envhost", pathString(t, v, "host"))
	assert.Equal(t, "fallback", pathString(t, v, "missing"))
	assert.Equal(t, int64(4096), pathInt(t, v, "buffer"))

	timeout, err := v.Get("timeout")
	require.NoError(t, err)
	f, err := timeout.AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 90.0, f)
}

func TestNOMLBadSize(t *testing.T) {
	_, err := nomlAdapter{}.Parse([]byte(`x = @size("10XB")`))
	var pe *conf.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "noml", pe.Format)
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"512B", 512},
		{"1KB", 1024},
		{"1KiB", 1024},
		{"2MB", 2 << 20},
		{"1.5GB", 3 << 29},
		{"1TB", 1 << 40},
	}
	for _, tc := range cases {
		got, err := parseSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := parseSize("abc")
	assert.Error(t, err)
}

func TestMarshalUnsupported(t *testing.T) {
	v := conf.Table()
	for _, a := range []conf.Adapter{hclAdapter{}, xmlAdapter{}, nomlAdapter{}} {
		_, err := a.Marshal(v)
		assert.ErrorIs(t, err, conf.ErrMarshalUnsupported, a.Name())
	}
}

func TestDetectAdapterByExtension(t *testing.T) {
	cases := map[string]string{
		"app.toml":       "toml",
		"app.yaml":       "yaml",
		"app.yml":        "yaml",
		"app.json":       "json",
		"app.ini":        "ini",
		"app.properties": "properties",
		"app.conf":       "conf",
		"app.hcl":        "hcl",
		"app.xml":        "xml",
		"app.noml":       "noml",
	}
	for path, want := range cases {
		a, err := conf.DetectAdapter(path, nil)
		require.NoError(t, err, path)
		assert.Equal(t, want, a.Name(), path)
	}
}

func TestDetectAdapterBySniff(t *testing.T) {
	cases := map[string]string{
		`{"a": 1}`:                  "json",
		"<config><a>1</a></config>": "xml",
		"a: 1\nb: 2\n":              "yaml",
		`x = env("HOME", "/tmp")`:   "noml",
		"[s]\nkey = value\n":        "toml",
		"block {\n  a = 1\n}\n":     "hcl",
		"app.name=svc\n":            "properties",
		"key = value\n":             "conf",
	}
	for src, want := range cases {
		a, err := conf.DetectAdapter("settings", []byte(src))
		require.NoError(t, err, src)
		assert.Equal(t, want, a.Name(), src)
	}
}

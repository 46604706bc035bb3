// FILE: confforge/conf/decode_test.go
package conf

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverSettings struct {
	Host     string        `conf:"host"`
	Port     int           `conf:"port"`
	Timeout  time.Duration `conf:"timeout"`
	Debug    bool          `conf:"debug"`
	Bind     net.IP        `conf:"bind"`
	Admin    *net.IPNet    `conf:"admin"`
	Endpoint url.URL       `conf:"endpoint"`
	Tags     []string      `conf:"tags"`
}

func TestDecodeValue(t *testing.T) {
	root := Table()
	require.NoError(t, root.Set("host", String("localhost")))
	require.NoError(t, root.Set("port", Integer(8080)))
	require.NoError(t, root.Set("timeout", String("30s")))
	require.NoError(t, root.Set("debug", String("true")))
	require.NoError(t, root.Set("bind", String("127.0.0.1")))
	require.NoError(t, root.Set("admin", String("10.0.0.0/8")))
	require.NoError(t, root.Set("endpoint", String("https://api.example.com/v1")))
	require.NoError(t, root.Set("tags", String("a,b,c")))

	var s serverSettings
	require.NoError(t, decodeValue(root, "conf", &s))

	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.True(t, s.Debug)
	assert.True(t, s.Bind.Equal(net.ParseIP("127.0.0.1")))
	require.NotNil(t, s.Admin)
	assert.Equal(t, "10.0.0.0/8", s.Admin.String())
	assert.Equal(t, "api.example.com", s.Endpoint.Host)
	assert.Equal(t, []string{"a", "b", "c"}, s.Tags)
}

func TestDecodeErrors(t *testing.T) {
	root := Table()
	require.NoError(t, root.Set("host", String("x")))

	t.Run("NonPointerTarget", func(t *testing.T) {
		var s serverSettings
		assert.Error(t, decodeValue(root, "conf", s))
	})

	t.Run("NilTarget", func(t *testing.T) {
		assert.Error(t, decodeValue(root, "conf", (*serverSettings)(nil)))
	})

	t.Run("ScalarSource", func(t *testing.T) {
		var s serverSettings
		assert.Error(t, decodeValue(Integer(1), "conf", &s))
	})

	t.Run("InvalidIP", func(t *testing.T) {
		bad := Table()
		require.NoError(t, bad.Set("bind", String("not-an-ip")))
		var s serverSettings
		assert.Error(t, decodeValue(bad, "conf", &s))
	})
}

func TestEncodeStruct(t *testing.T) {
	type nested struct {
		Size int `conf:"size"`
	}
	type defaults struct {
		Host string `conf:"host"`
		Pool nested `conf:"pool"`
	}

	v, err := encodeStruct("conf", defaults{Host: "localhost", Pool: nested{Size: 10}})
	require.NoError(t, err)
	require.True(t, v.IsTable())

	host, err := v.Get("host")
	require.NoError(t, err)
	s, _ := host.AsString()
	assert.Equal(t, "localhost", s)

	size, err := v.Get("pool.size")
	require.NoError(t, err)
	i, _ := size.AsInteger()
	assert.Equal(t, int64(10), i)
}

// File: confforge/conf/format/noml.go
package format

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/confforge/conf"
)

// nomlAdapter handles the NOML dialect: TOML syntax extended with
// env("VAR", "default") resolution and the @size / @duration native
// types. Dynamic expressions resolve to plain scalars at parse time;
// interpolation state is not preserved, so the adapter is parse-only.
type nomlAdapter struct{}

var (
	nomlEnvRe      = regexp.MustCompile(`env\(\s*"([^"]*)"\s*(?:,\s*"([^"]*)"\s*)?\)`)
	nomlSizeRe     = regexp.MustCompile(`@size\(\s*"([^"]*)"\s*\)`)
	nomlDurationRe = regexp.MustCompile(`@duration\(\s*"([^"]*)"\s*\)`)
)

func (nomlAdapter) Name() string { return "noml" }

func (nomlAdapter) Sniff(data []byte) bool {
	s := string(data)
	return nomlEnvRe.MatchString(s) || nomlSizeRe.MatchString(s) || nomlDurationRe.MatchString(s)
}

func (nomlAdapter) Parse(data []byte) (*conf.Value, error) {
	resolved, err := resolveNOML(string(data))
	if err != nil {
		return nil, err
	}
	v, err := tomlAdapter{}.Parse([]byte(resolved))
	if err != nil {
		if pe, ok := err.(*conf.ParseError); ok {
			pe.Format = "noml"
		}
		return nil, err
	}
	return v, nil
}

func (nomlAdapter) Marshal(v *conf.Value) ([]byte, error) {
	return nil, conf.ErrMarshalUnsupported
}

// resolveNOML rewrites dynamic expressions to TOML literals: env() to a
// quoted string, @size to a byte count, @duration to seconds.
func resolveNOML(source string) (string, error) {
	var firstErr error

	out := nomlEnvRe.ReplaceAllStringFunc(source, func(match string) string {
		groups := nomlEnvRe.FindStringSubmatch(match)
		val, ok := os.LookupEnv(groups[1])
		if !ok {
			val = groups[2]
		}
		return strconv.Quote(val)
	})

	out = nomlSizeRe.ReplaceAllStringFunc(out, func(match string) string {
		groups := nomlSizeRe.FindStringSubmatch(match)
		n, err := parseSize(groups[1])
		if err != nil && firstErr == nil {
			firstErr = &conf.ParseError{Format: "noml", Msg: err.Error()}
		}
		return strconv.FormatInt(n, 10)
	})

	out = nomlDurationRe.ReplaceAllStringFunc(out, func(match string) string {
		groups := nomlDurationRe.FindStringSubmatch(match)
		d, err := time.ParseDuration(groups[1])
		if err != nil && firstErr == nil {
			firstErr = &conf.ParseError{Format: "noml", Msg: fmt.Sprintf("invalid duration %q", groups[1])}
		}
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	})

	return out, firstErr
}

// parseSize converts "10MB" style sizes to bytes. Binary units (KiB...)
// use 1024 multiples, decimal units 1000, bare KB/MB/GB stay binary for
// compatibility with common config conventions.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	num, unit := s[:i], strings.TrimSpace(s[i:])
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	mult := int64(1)
	switch strings.ToUpper(unit) {
	case "", "B":
	case "KB", "KIB", "K":
		mult = 1 << 10
	case "MB", "MIB", "M":
		mult = 1 << 20
	case "GB", "GIB", "G":
		mult = 1 << 30
	case "TB", "TIB", "T":
		mult = 1 << 40
	default:
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}
	return int64(n * float64(mult)), nil
}

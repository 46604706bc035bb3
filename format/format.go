// File: confforge/conf/format/format.go

// Package format provides the built-in format adapters for conf: CONF,
// INI, Java Properties, JSON, YAML, TOML, HCL, XML and NOML. Importing
// this package registers every adapter, in the manner of database/sql
// drivers:
//
//	import _ "github.com/confforge/conf/format"
//
// All adapters parse into the same canonical value tree, so a file
// loaded in one format can be saved in any format with a marshaller.
// HCL, XML and NOML are parse-only.
package format

import (
	"fmt"
	"sort"

	"github.com/confforge/conf"
)

// rootTable asserts that a marshalling source is a table and returns its
// plain-map form.
func rootTable(v *conf.Value, name string) (map[string]any, error) {
	m, ok := v.Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: can only marshal a table root, got %s", name, v.Kind())
	}
	return m, nil
}

// sortedKeys returns table keys in lexicographic order for stable output.
func sortedKeys(table map[string]*conf.Value) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}

// Registration order sets content-sniffing priority: unambiguous
// grammars first, the permissive line formats last. CONF is also the
// detection fallback when nothing matches.
func init() {
	conf.RegisterAdapter(jsonAdapter{}, ".json")
	conf.RegisterAdapter(xmlAdapter{}, ".xml")
	conf.RegisterAdapter(nomlAdapter{}, ".noml")
	conf.RegisterAdapter(tomlAdapter{}, ".toml")
	conf.RegisterAdapter(yamlAdapter{}, ".yaml", ".yml")
	conf.RegisterAdapter(hclAdapter{}, ".hcl", ".tf")
	conf.RegisterAdapter(iniAdapter{}, ".ini")
	conf.RegisterAdapter(propertiesAdapter{}, ".properties")
	conf.RegisterAdapter(confAdapter{}, ".conf", ".config", ".cfg")
}

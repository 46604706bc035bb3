// File: confforge/conf/format/xml.go
package format

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/confforge/conf"
)

// xmlAdapter parses generic key-value XML configuration of the kind
// found in Java and .NET environments. Attributes become table entries;
// an element holding only text collapses to that text's typed value.
// Parse-only.
type xmlAdapter struct{}

func (xmlAdapter) Name() string { return "xml" }

func (xmlAdapter) Sniff(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

func (xmlAdapter) Parse(data []byte) (*conf.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	type frame struct {
		name  string
		table *conf.Value
	}
	root := conf.Table()
	var stack []frame

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &conf.ParseError{Format: "xml", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			table := conf.Table()
			for _, attr := range t.Attr {
				table.TableSet(attr.Name.Local, conf.String(attr.Value))
			}
			stack = append(stack, frame{name: t.Name.Local, table: table})

		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			// An element holding only text collapses to the text value
			val := top.table
			if top.table.Len() == 1 {
				if text, ok := top.table.TableGet("text"); ok {
					val = text
				}
			}
			if len(stack) > 0 {
				stack[len(stack)-1].table.TableSet(top.name, val)
			} else {
				root.TableSet(top.name, val)
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || len(stack) == 0 {
				continue
			}
			stack[len(stack)-1].table.TableSet("text", conf.CoerceScalar(text))
		}
	}

	if len(stack) != 0 {
		return nil, &conf.ParseError{Format: "xml", Msg: "unclosed element " + stack[len(stack)-1].name}
	}
	return root, nil
}

func (xmlAdapter) Marshal(v *conf.Value) ([]byte, error) {
	return nil, conf.ErrMarshalUnsupported
}

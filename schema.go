// FILE: confforge/conf/schema.go
package conf

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema validates Value trees against a JSON Schema document. Validation
// is a pass-through gate, never a data transform: the tree is not modified
// and every violation is reported at once.
type Schema struct {
	compiled *gojsonschema.Schema
}

// NewSchema compiles a schema from its JSON source.
func NewSchema(source []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(source))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// NewSchemaFromValue compiles a schema expressed as a Value tree, which
// lets a schema itself be loaded through any format adapter.
func NewSchemaFromValue(v *Value) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(v.Interface()))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks the tree and returns every rule violation. An empty
// slice means the tree conforms. Only a broken validation run (not a rule
// violation) produces a non-nil error.
func (s *Schema) Validate(v *Value) ([]ValidationError, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(v.Interface()))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		path := re.Field()
		if path == "(root)" {
			path = ""
		}
		errs = append(errs, ValidationError{Path: path, Message: re.Description()})
	}
	return errs, nil
}

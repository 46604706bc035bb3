// File: confforge/conf/errors.go
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Sentinel errors for errors.Is checks across the package boundary.
var (
	// ErrNotFound is reported when a path segment is absent.
	ErrNotFound = errors.New("path not found")

	// ErrTypeMismatch is reported when a non-terminal path segment
	// addresses a value that is not a table.
	ErrTypeMismatch = errors.New("path type mismatch")

	// ErrInvalidPath is reported for malformed paths (empty path or
	// empty segment).
	ErrInvalidPath = errors.New("invalid path")

	// ErrConfigNotFound is returned when a configuration file does not
	// exist. Callers usually proceed with defaults.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrNoFilePath is returned by Save when the configuration was not
	// loaded from a file and no target path was given.
	ErrNoFilePath = errors.New("no file path associated with configuration")

	// ErrMarshalUnsupported is returned by parse-only format adapters.
	ErrMarshalUnsupported = errors.New("format does not support marshaling")
)

// PathError describes a failed path operation. It wraps ErrNotFound,
// ErrTypeMismatch or ErrInvalidPath for errors.Is.
type PathError struct {
	Path    string
	Segment string
	Err     error
}

func (e *PathError) Error() string {
	if e.Segment != "" && e.Segment != e.Path {
		return fmt.Sprintf("path %q: segment %q: %v", e.Path, e.Segment, e.Err)
	}
	return fmt.Sprintf("path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// TypeError is reported when a value coercion has no applicable rule.
type TypeError struct {
	Want  string
	Got   Kind
	Value string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot convert %s %q to %s", e.Got, e.Value, e.Want)
}

// ParseError describes malformed source text. A parse failure is fatal to
// that one parse attempt and is never partially applied.
type ParseError struct {
	Format string
	Line   int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Format)
	sb.WriteString(" parse error")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is a single schema rule violation. Validation always
// surfaces the full list so every violation is visible at once.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// JoinValidationErrors folds a violation list into one error value, or nil
// when the list is empty.
func JoinValidationErrors(errs []ValidationError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}

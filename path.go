// File: confforge/conf/path.go
package conf

import "strings"

// Path operations over a Value tree. A path is a dot-separated string where
// each segment addresses one table key ("database.pool.size"). Segments may
// not be empty; arrays are addressed only as whole values.
//
// Flat-key fallback: some formats (INI, Properties) legitimately produce a
// single flat key containing dots, e.g. a table entry literally named
// "database.host". When nested navigation fails at a table, the remaining
// path joined with dots is tried as one literal key of that table. Both key
// shapes coexist and resolve through the same API; this fallback is a
// documented invariant, not an accident.

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, &PathError{Path: path, Err: ErrInvalidPath}
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, &PathError{Path: path, Segment: seg, Err: ErrInvalidPath}
		}
	}
	return segments, nil
}

// Get resolves a dot path against the tree. It fails with ErrNotFound when
// a segment is absent and ErrTypeMismatch when a non-terminal segment
// addresses a non-table value.
func (v *Value) Get(path string) (*Value, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	current := v
	for i, seg := range segments {
		if current.kind != KindTable {
			return nil, &PathError{Path: path, Segment: seg, Err: ErrTypeMismatch}
		}
		next, ok := current.t[seg]
		if !ok {
			// Flat-key fallback: the remaining path as one literal key.
			if flat, ok := current.t[strings.Join(segments[i:], ".")]; ok {
				return flat, nil
			}
			return nil, &PathError{Path: path, Segment: seg, Err: ErrNotFound}
		}
		if i < len(segments)-1 && next.kind != KindTable {
			if flat, ok := current.t[strings.Join(segments[i:], ".")]; ok {
				return flat, nil
			}
			return nil, &PathError{Path: path, Segment: segments[i+1], Err: ErrTypeMismatch}
		}
		current = next
	}
	return current, nil
}

// Contains reports whether the path resolves to a value.
func (v *Value) Contains(path string) bool {
	_, err := v.Get(path)
	return err == nil
}

// Set writes a value at the path, creating intermediate tables for missing
// segments. An existing non-table intermediate is never silently replaced;
// that fails with ErrTypeMismatch. Use SetReplace to overwrite it.
func (v *Value) Set(path string, val *Value) error {
	return v.set(path, val, false)
}

// SetReplace writes a value at the path, replacing any scalar intermediate
// with a fresh table on the way down.
func (v *Value) SetReplace(path string, val *Value) error {
	return v.set(path, val, true)
}

func (v *Value) set(path string, val *Value, replace bool) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if v.kind != KindTable {
		return &PathError{Path: path, Segment: segments[0], Err: ErrTypeMismatch}
	}

	current := v
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current.t[seg]
		if !ok {
			next = Table()
			current.t[seg] = next
		} else if next.kind != KindTable {
			if !replace {
				return &PathError{Path: path, Segment: seg, Err: ErrTypeMismatch}
			}
			next = Table()
			current.t[seg] = next
		}
		current = next
	}
	current.t[segments[len(segments)-1]] = val
	return nil
}

// Remove deletes the value at the path and returns it. Removing an absent
// path is not an error; it returns (nil, nil) and does not mutate the tree.
// The flat-key fallback applies the same way it does for Get.
func (v *Value) Remove(path string) (*Value, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if v.kind != KindTable {
		return nil, &PathError{Path: path, Segment: segments[0], Err: ErrTypeMismatch}
	}

	current := v
	for i, seg := range segments[:len(segments)-1] {
		next, ok := current.t[seg]
		if !ok || next.kind != KindTable {
			// The nested shape is absent; the whole remainder may still
			// exist as one flat key.
			flatKey := strings.Join(segments[i:], ".")
			if removed, ok := current.t[flatKey]; ok {
				delete(current.t, flatKey)
				return removed, nil
			}
			if ok && next.kind != KindTable {
				return nil, &PathError{Path: path, Segment: seg, Err: ErrTypeMismatch}
			}
			return nil, nil
		}
		current = next
	}

	last := segments[len(segments)-1]
	removed, ok := current.t[last]
	if !ok {
		return nil, nil
	}
	delete(current.t, last)
	return removed, nil
}

// Paths returns every addressable path in the tree in deterministic
// depth-first order. Table-valued paths are included alongside their
// children.
func (v *Value) Paths() []string {
	var out []string
	v.collectPaths("", &out)
	return out
}

func (v *Value) collectPaths(prefix string, out *[]string) {
	if v.kind != KindTable {
		return
	}
	for _, k := range v.Keys() {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		*out = append(*out, full)
		v.t[k].collectPaths(full, out)
	}
}

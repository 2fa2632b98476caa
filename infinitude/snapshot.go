package infinitude

import "strconv"

// Document is one normalized endpoint snapshot: a schema-free tree of
// maps, lists and scalars. Lookups are total; a missing key, a nil tree or
// a value of the wrong type reads as absent, never as a panic. Documents
// are replaced wholesale on refresh and never mutated in place.
type Document map[string]any

// lookup walks the given keys through nested maps.
func (d Document) lookup(keys ...string) (any, bool) {
	var cur any = map[string]any(d)
	for _, key := range keys {
		m, ok := asMap(cur)
		if !ok || m == nil {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// getString returns the string at the given path. Empty strings and
// non-string values read as absent, mirroring how the device leaves unset
// fields as empty elements.
func (d Document) getString(keys ...string) (string, bool) {
	v, ok := d.lookup(keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// getFloat parses the value at the given path as a float. Status values
// arrive as strings, energy values as JSON numbers; both are accepted.
func (d Document) getFloat(keys ...string) (float64, bool) {
	v, ok := d.lookup(keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// getInt is getFloat truncated to an int.
func (d Document) getInt(keys ...string) (int, bool) {
	f, ok := d.getFloat(keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// getMap returns the nested map at the given path.
func (d Document) getMap(keys ...string) (Document, bool) {
	v, ok := d.lookup(keys...)
	if !ok {
		return nil, false
	}
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	return Document(m), true
}

// getList returns the list at the given path. A lone map reads as a
// one-element list, since simplify collapses single-item lists into their
// element.
func (d Document) getList(keys ...string) ([]Document, bool) {
	v, ok := d.lookup(keys...)
	if !ok {
		return nil, false
	}
	if m, ok := asMap(v); ok {
		return []Document{Document(m)}, true
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Document, 0, len(raw))
	for _, item := range raw {
		if m, ok := asMap(item); ok {
			out = append(out, Document(m))
		}
	}
	return out, true
}

package infinitude

// simplify collapses the list-wrapping artifacts of Infinitude's XML to JSON
// conversion, which represents every element as a list even when the schema
// only ever allows one. A single-item list becomes its sole element,
// recursively. Lists of any other length keep their length and order. The
// input is never mutated.
func simplify(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = simplify(item)
		}
		return out
	case []any:
		if len(val) == 1 {
			return simplify(val[0])
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = simplify(item)
		}
		return out
	default:
		return v
	}
}

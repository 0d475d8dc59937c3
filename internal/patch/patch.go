// Package patch models the captured function-metadata document the rest of
// the pipeline mutates, repairs, and verifies. A patch is a plain JSON-style
// mapping; the functions container lives under one top-level key and its
// contents are never interpreted here.
package patch

// Patch is the nested key-value document under test.
type Patch map[string]any

// AsObject reports whether v is a JSON object and returns it as a map.
func AsObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Clone returns a deep copy of the patch. Stages of the pipeline operate on
// copies so the artifact each stage consumed stays intact.
func (p Patch) Clone() Patch {
	if p == nil {
		return nil
	}
	return Patch(cloneValue(map[string]any(p)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		// Scalars (string, float64, bool, nil) are immutable as decoded
		// from JSON.
		return t
	}
}

// SortedKeys returns the patch's top-level keys in sorted order.
func (p Patch) SortedKeys() []string {
	return sortedKeys(map[string]any(p))
}

package types

// Conventional metadata keys.
const (
	MetaKeyType        = "type"
	MetaKeyDescription = "description"
)

// Metadata is an open mapping of string keys to JSON-compatible values.
type Metadata map[string]any

// Clone returns a deep copy of m. Nested maps and slices are copied so the
// result shares no mutable state with m. A nil Metadata clones to an empty
// map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the value stored under key when it is a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case Metadata:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

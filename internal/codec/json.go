package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FormatJSON names the JSON codec.
const FormatJSON = "json"

// JSONCodec encodes payloads as JSON. Plain JSON values decode as usual
// (numbers as float64, objects as map[string]any, arrays as []any); byte
// slices, integers and float32 are tagged so they decode to the same type.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Name returns the codec format identifier
func (c *JSONCodec) Name() string {
	return FormatJSON
}

// Encode serializes data to JSON without HTML escaping. Values that would
// not decode back unchanged return ErrUnsupportedPayload.
func (c *JSONCodec) Encode(data any) ([]byte, error) {
	tree, err := toTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses JSON bytes.
func (c *JSONCodec) Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to parse JSON: trailing data after value")
	}
	data, err := fromTree(v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return data, nil
}

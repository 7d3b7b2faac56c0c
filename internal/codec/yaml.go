package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FormatYAML names the YAML codec.
const FormatYAML = "yaml"

// YAMLCodec encodes payloads as YAML with the same value model as JSONCodec:
// bare numbers decode as float64, tagged integers, float32 and byte slices
// decode to their original types.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Name returns the codec format identifier
func (c *YAMLCodec) Name() string {
	return FormatYAML
}

// Encode serializes data to YAML. Values that would not decode back
// unchanged return ErrUnsupportedPayload.
func (c *YAMLCodec) Encode(data any) ([]byte, error) {
	tree, err := toTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	b, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return b, nil
}

// Decode parses YAML bytes.
func (c *YAMLCodec) Decode(b []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	data, err := fromTree(v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return data, nil
}

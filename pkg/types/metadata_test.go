package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataClone_Deep(t *testing.T) {
	orig := Metadata{
		"type":   "document",
		"nested": map[string]any{"k": "v", "list": []any{1.0, "two"}},
		"tags":   []string{"a", "b"},
		"inner":  Metadata{"x": 1.0},
	}
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp["type"] = "changed"
	cp["nested"].(map[string]any)["k"] = "changed"
	cp["nested"].(map[string]any)["list"].([]any)[0] = 9.0
	cp["tags"].([]string)[0] = "z"
	cp["inner"].(Metadata)["x"] = 2.0

	assert.Equal(t, "document", orig["type"])
	assert.Equal(t, "v", orig["nested"].(map[string]any)["k"])
	assert.Equal(t, 1.0, orig["nested"].(map[string]any)["list"].([]any)[0])
	assert.Equal(t, []string{"a", "b"}, orig["tags"])
	assert.Equal(t, 1.0, orig["inner"].(Metadata)["x"])
}

func TestMetadataClone_Nil(t *testing.T) {
	var m Metadata
	cp := m.Clone()
	require.NotNil(t, cp)
	assert.Empty(t, cp)
}

func TestMetadataString(t *testing.T) {
	m := Metadata{MetaKeyType: "cites", "count": 3}
	assert.Equal(t, "cites", m.String(MetaKeyType))
	assert.Empty(t, m.String("count"))
	assert.Empty(t, m.String("missing"))
}

package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONProcessor_Malformed(t *testing.T) {
	p := NewJSONProcessor()

	res := p.Process([]byte("{"), FileInfo{Name: "bad.json"})
	require.False(t, res.Success)
	assert.NotEmpty(t, res.Err)
	assert.Contains(t, res.Err, "JSON Validation Error")
}

func TestJSONProcessor_StructureStats(t *testing.T) {
	p := NewJSONProcessor()

	res := p.Process([]byte(`{"a":1,"b":{"c":2}}`), FileInfo{Name: "doc.json", Size: 19})
	require.True(t, res.Success, res.Err)

	assert.Equal(t, 2, res.Metadata["total_keys"])
	assert.Equal(t, 2, res.Metadata["max_depth"])

	types, ok := res.Metadata["types"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, types["number"])
	assert.Equal(t, 1, types["object"])

	assert.Equal(t, "application/json", res.MimeType)
	assert.Equal(t, "json", res.Extension)
	assert.Contains(t, string(res.Content), "Validation: PASSED")
	assert.Contains(t, string(res.Content), "Total Keys: 2")
	assert.Contains(t, string(res.Content), "Nesting Depth: 2")
}

func TestJSONProcessor_PrettyPrint(t *testing.T) {
	p := NewJSONProcessor()

	res := p.Process([]byte(`{"a":[1,2]}`), FileInfo{Name: "arr.json"})
	require.True(t, res.Success)
	assert.Contains(t, string(res.Content), "\"a\": [\n    1,\n    2\n  ]")
}

func TestJSONProcessor_Depth(t *testing.T) {
	p := NewJSONProcessor()

	tests := []struct {
		name  string
		input string
		depth int
		keys  int
	}{
		{"scalar", `42`, 1, 0},
		{"flat object", `{"a":1,"b":2}`, 1, 2},
		{"array of objects", `[{"a":{"b":1}}]`, 3, 1},
		{"deep nesting", `{"a":{"b":{"c":{"d":1}}}}`, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Process([]byte(tt.input), FileInfo{})
			require.True(t, res.Success)
			assert.Equal(t, tt.depth, res.Metadata["max_depth"])
			assert.Equal(t, tt.keys, res.Metadata["total_keys"])
		})
	}
}

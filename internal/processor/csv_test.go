package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVProcessor_ColumnStats(t *testing.T) {
	p := NewCSVProcessor()

	res := p.Process([]byte("a,b\n1,2\n3,x"), FileInfo{Name: "data.csv", Size: 11})
	require.True(t, res.Success, res.Err)

	assert.Equal(t, 2, res.Metadata["row_count"])
	assert.Equal(t, 2, res.Metadata["column_count"])

	cols, ok := res.Metadata["column_stats"].(map[string]any)
	require.True(t, ok)

	a, ok := cols["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, a["numeric"])
	assert.Equal(t, 1.0, a["min"])
	assert.Equal(t, 3.0, a["max"])
	assert.Equal(t, 2.0, a["mean"])

	b, ok := cols["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, b["numeric"])
	assert.Equal(t, 2, b["distinct"])

	assert.Contains(t, string(res.Content), "- a: Min: 1.00, Max: 3.00, Avg: 2.00")
	assert.Contains(t, string(res.Content), "- b: Unique values: 2")
}

func TestCSVProcessor_SampleRowsCapped(t *testing.T) {
	p := NewCSVProcessor()

	input := "n\n"
	for i := 0; i < 25; i++ {
		input += "1\n"
	}
	res := p.Process([]byte(input), FileInfo{Name: "big.csv"})
	require.True(t, res.Success)
	assert.Equal(t, 25, res.Metadata["row_count"])
}

func TestCSVProcessor_Malformed(t *testing.T) {
	p := NewCSVProcessor()

	res := p.Process([]byte("a,\"b\nunterminated"), FileInfo{Name: "bad.csv"})
	require.False(t, res.Success)
	assert.NotEmpty(t, res.Err)
}

func TestCSVProcessor_Empty(t *testing.T) {
	p := NewCSVProcessor()

	res := p.Process(nil, FileInfo{Name: "empty.csv"})
	require.False(t, res.Success)
	assert.NotEmpty(t, res.Err)
}

package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextProcessor(t *testing.T) {
	p := NewTextProcessor()

	res := p.Process([]byte("ab\ncd"), FileInfo{Name: "notes.txt", Size: 5})
	require.True(t, res.Success)

	content := string(res.Content)
	first := strings.Index(content, "001: AB")
	second := strings.Index(content, "002: CD")
	assert.Greater(t, first, -1)
	assert.Greater(t, second, first, "lines must appear in order")

	assert.Equal(t, "text/plain", res.MimeType)
	assert.Equal(t, "txt", res.Extension)
	assert.Equal(t, 2, res.Metadata["line_count"])
}

func TestTextProcessor_EmptyInput(t *testing.T) {
	p := NewTextProcessor()

	res := p.Process(nil, FileInfo{Name: "empty.txt"})
	require.True(t, res.Success)
	// splitting "" on \n yields one empty line
	assert.Equal(t, 1, res.Metadata["line_count"])
	assert.Contains(t, string(res.Content), "001: ")
}

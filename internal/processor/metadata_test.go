package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProcessor_Counts(t *testing.T) {
	p := NewDefaultProcessor()

	input := []byte("one two three\nfour five\n")
	res := p.Process(input, FileInfo{Name: "words.txt", Size: int64(len(input)), MimeType: "text/plain"})
	require.True(t, res.Success)

	assert.Equal(t, 2, res.Metadata["lines"])
	assert.Equal(t, 5, res.Metadata["words"])
	assert.Equal(t, len(input), res.Metadata["characters"])

	sum := sha256.Sum256(input)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Metadata["sha256"])
}

func TestDefaultProcessor_Truncation(t *testing.T) {
	p := NewDefaultProcessor()

	long := strings.Repeat("x", 1500)
	res := p.Process([]byte(long), FileInfo{Name: "big.bin"})
	require.True(t, res.Success)

	assert.Contains(t, string(res.Content), "... (truncated, 500 more characters)")
}

func TestDefaultProcessor_ShortContentNotTruncated(t *testing.T) {
	p := NewDefaultProcessor()

	res := p.Process([]byte("tiny"), FileInfo{Name: "tiny.bin"})
	require.True(t, res.Success)
	assert.NotContains(t, string(res.Content), "truncated")
	assert.Contains(t, string(res.Content), "tiny")
}

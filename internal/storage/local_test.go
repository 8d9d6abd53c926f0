package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte("hello blob")
	require.NoError(t, s.Put(ctx, "abc123", bytes.NewReader(content), "text/plain"))

	rc, err := s.Get(ctx, "abc123")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestLocalStorage_Delete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "gone", bytes.NewReader([]byte("x")), ""))
	require.NoError(t, s.Delete(ctx, "gone"))

	_, err = s.Get(ctx, "gone")
	assert.Error(t, err)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, "gone"))
}

func TestLocalStorage_RejectsTraversalKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../etc", "a/b"} {
		assert.Error(t, s.Put(ctx, key, bytes.NewReader(nil), ""), key)
	}
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "f-1_processed.txt", ArtifactKey("f-1", "txt"))
}

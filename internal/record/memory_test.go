package record

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajaydixit/fileflow/internal/models"
)

func newRecord(t *testing.T, s Store) *models.FileRecord {
	t.Helper()
	rec := &models.FileRecord{
		FileID:         uuid.New(),
		Status:         models.StatusPending,
		ProcessingType: "text_transform",
		OriginalName:   "notes.txt",
		StoredFileName: "abc",
		FileSizeBytes:  12,
	}
	require.NoError(t, s.Create(context.Background(), rec))
	return rec
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := newRecord(t, s)

	got, err := s.Get(ctx, rec.FileID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 0, got.Progress)
	assert.Nil(t, got.ProcessedArtifactRef)
	assert.Nil(t, got.ErrorMessage)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStore_DuplicateCreateRejected(t *testing.T) {
	s := NewMemoryStore()
	rec := newRecord(t, s)

	err := s.Create(context.Background(), rec)
	assert.Error(t, err)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_HappyPathTransitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	ok, err := s.MarkProcessing(ctx, rec.FileID)
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := s.Get(ctx, rec.FileID)
	require.NotNil(t, got.StartedAt)

	ok, err = s.MarkCompleted(ctx, rec.FileID, rec.FileID.String()+"_processed.txt", map[string]any{"line_count": 3})
	require.NoError(t, err)
	require.True(t, ok)

	got, _ = s.Get(ctx, rec.FileID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.ProcessedArtifactRef)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 3, got.Metadata["line_count"])
}

// processed_artifact_ref must be non-nil exactly when the record is
// completed, across every transition sequence.
func TestMemoryStore_ArtifactRefInvariant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	check := func() {
		got, err := s.Get(ctx, rec.FileID)
		require.NoError(t, err)
		if got.Status == models.StatusCompleted {
			assert.NotNil(t, got.ProcessedArtifactRef)
		} else {
			assert.Nil(t, got.ProcessedArtifactRef)
		}
		if got.Status == models.StatusFailed {
			assert.NotNil(t, got.ErrorMessage)
		} else {
			assert.Nil(t, got.ErrorMessage)
		}
	}

	check()
	s.MarkProcessing(ctx, rec.FileID)
	check()
	s.MarkFailed(ctx, rec.FileID, "boom")
	check()
	s.ResetForRetry(ctx, rec.FileID)
	check()
	s.MarkProcessing(ctx, rec.FileID)
	check()
	s.MarkCompleted(ctx, rec.FileID, "ref", nil)
	check()
}

func TestMemoryStore_NoDirectPendingToCompleted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	ok, err := s.MarkCompleted(ctx, rec.FileID, "ref", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(ctx, rec.FileID)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestMemoryStore_RetryEligibility(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(s Store, id uuid.UUID)
		want    bool
	}{
		{"from pending", func(s Store, id uuid.UUID) {}, false},
		{"from processing", func(s Store, id uuid.UUID) {
			s.MarkProcessing(ctx, id)
		}, false},
		{"from failed", func(s Store, id uuid.UUID) {
			s.MarkProcessing(ctx, id)
			s.MarkFailed(ctx, id, "boom")
		}, true},
		{"from completed", func(s Store, id uuid.UUID) {
			s.MarkProcessing(ctx, id)
			s.MarkCompleted(ctx, id, "ref", nil)
		}, false},
		{"from cancelled", func(s Store, id uuid.UUID) {
			s.MarkCancelled(ctx, id)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			rec := newRecord(t, s)
			tt.prepare(s, rec.FileID)

			ok, err := s.ResetForRetry(ctx, rec.FileID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMemoryStore_RetryCountIncrements(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	for i := 1; i <= 3; i++ {
		ok, err := s.MarkProcessing(ctx, rec.FileID)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.MarkFailed(ctx, rec.FileID, "boom")
		require.NoError(t, err)
		require.True(t, ok)

		got, _ := s.Get(ctx, rec.FileID)
		assert.Equal(t, i, got.RetryCount)

		ok, err = s.ResetForRetry(ctx, rec.FileID)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestMemoryStore_CancelOverride(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	ok, err := s.MarkProcessing(ctx, rec.FileID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.MarkCancelled(ctx, rec.FileID)
	require.NoError(t, err)
	require.True(t, ok)

	// a racing worker's completion must not apply
	ok, err = s.MarkCompleted(ctx, rec.FileID, "ref", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(ctx, rec.FileID)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Nil(t, got.ProcessedArtifactRef)
}

func TestMemoryStore_CancelRejectedWhenCompleted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	s.MarkProcessing(ctx, rec.FileID)
	s.MarkCompleted(ctx, rec.FileID, "ref", nil)

	ok, err := s.MarkCancelled(ctx, rec.FileID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Counts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := newRecord(t, s)
	newRecord(t, s)
	s.MarkProcessing(ctx, a.FileID)

	byStatus, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byStatus[models.StatusPending])
	assert.Equal(t, int64(1), byStatus[models.StatusProcessing])

	byType, err := s.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byType["text_transform"])
}

func TestMemoryStore_StaleProcessing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)
	s.MarkProcessing(ctx, rec.FileID)

	n, err := s.CountStaleProcessing(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.CountStaleProcessing(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_DeleteOlderThan(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	done := newRecord(t, s)
	s.MarkProcessing(ctx, done.FileID)
	s.MarkCompleted(ctx, done.FileID, "ref", nil)

	stillPending := newRecord(t, s)

	// cutoff in the future: everything settled qualifies as old
	deleted, err := s.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, done.FileID, deleted[0].FileID)

	_, err = s.Get(ctx, done.FileID)
	assert.ErrorIs(t, err, ErrNotFound)

	// a pending record of any age is never deleted
	got, err := s.Get(ctx, stillPending.FileID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	require.NoError(t, s.Delete(ctx, rec.FileID))

	_, err := s.Get(ctx, rec.FileID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, rec.FileID), ErrNotFound)
}

func TestMemoryStore_ResetPreventsLateCompletion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord(t, s)

	s.MarkProcessing(ctx, rec.FileID)
	s.MarkFailed(ctx, rec.FileID, "boom")

	ok, err := s.ResetForRetry(ctx, rec.FileID)
	require.NoError(t, err)
	require.True(t, ok)

	// a straggling worker from the failed attempt cannot complete a record
	// that was reset back to pending
	ok, err = s.MarkCompleted(ctx, rec.FileID, "stale-ref", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Get(ctx, rec.FileID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ProcessedArtifactRef)
}

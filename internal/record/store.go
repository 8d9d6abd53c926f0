package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ajaydixit/fileflow/internal/models"
)

// ErrNotFound is returned when no record exists for the given file ID.
var ErrNotFound = errors.New("file record not found")

// Store is the single source of truth for a file's lifecycle. Each Mark*
// method is a compare-and-swap: it lists the statuses it may transition from
// and reports whether the transition applied, so two racing writers can never
// produce a torn record.
type Store interface {
	Create(ctx context.Context, rec *models.FileRecord) error
	Get(ctx context.Context, fileID uuid.UUID) (*models.FileRecord, error)

	// MarkProcessing transitions pending|processing|failed -> processing and
	// sets started_at. failed is admitted so queue-layer redeliveries can
	// re-run a record whose previous attempt failed.
	MarkProcessing(ctx context.Context, fileID uuid.UUID) (bool, error)

	// MarkCompleted transitions processing -> completed, records the artifact
	// reference, sets progress to 100 and merges the processor metadata.
	MarkCompleted(ctx context.Context, fileID uuid.UUID, artifactRef string, meta map[string]any) (bool, error)

	// MarkFailed transitions pending|processing -> failed, records the error
	// and increments the retry count.
	MarkFailed(ctx context.Context, fileID uuid.UUID, errMsg string) (bool, error)

	// MarkCancelled transitions pending|processing -> cancelled.
	MarkCancelled(ctx context.Context, fileID uuid.UUID) (bool, error)

	// ResetForRetry transitions failed -> pending, clearing the error and
	// progress. The retry count is kept as history.
	ResetForRetry(ctx context.Context, fileID uuid.UUID) (bool, error)

	UpdateProgress(ctx context.Context, fileID uuid.UUID, progress int) error

	// Delete removes a record unconditionally. Used to roll back a failed
	// upload; retention cleanup goes through DeleteOlderThan instead.
	Delete(ctx context.Context, fileID uuid.UUID) error

	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByType(ctx context.Context) (map[string]int64, error)

	// CountStaleProcessing counts records stuck in processing whose
	// started_at is older than the cutoff.
	CountStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)

	// DeleteOlderThan removes completed/failed records created before the
	// cutoff and returns them so the caller can delete their blobs.
	// Records in other statuses are never touched.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.FileRecord, error)
}

package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajaydixit/fileflow/internal/models"
)

const recordColumns = `file_id, user_id, status, processing_type, original_name, stored_file_name,
	mime_type, file_size_bytes, processed_artifact_ref, progress, error_message, retry_count,
	metadata, created_at, started_at, completed_at, failed_at`

// PostgresStore persists file records in a single table. Transitions are
// single conditional UPDATE statements, so row-level atomicity in Postgres
// gives the compare-and-swap semantics the Store contract requires.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.FileRecord) error {
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO file_records (file_id, user_id, status, processing_type, original_name,
			stored_file_name, mime_type, file_size_bytes, progress, retry_count, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9)
		 RETURNING created_at`,
		rec.FileID, rec.UserID, rec.Status, rec.ProcessingType, rec.OriginalName,
		rec.StoredFileName, rec.MimeType, rec.FileSizeBytes, rec.Metadata,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, fileID uuid.UUID) (*models.FileRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM file_records WHERE file_id = $1`, fileID)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, fileID uuid.UUID) (bool, error) {
	return s.transition(ctx,
		`UPDATE file_records SET status = $2, started_at = now()
		 WHERE file_id = $1 AND status = ANY($3)`,
		fileID, models.StatusProcessing,
		[]string{models.StatusPending, models.StatusProcessing, models.StatusFailed})
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, fileID uuid.UUID, artifactRef string, meta map[string]any) (bool, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE file_records
		 SET status = $2, processed_artifact_ref = $3, progress = 100,
		     completed_at = now(), metadata = metadata || $4
		 WHERE file_id = $1 AND status = $5`,
		fileID, models.StatusCompleted, artifactRef, meta, models.StatusProcessing)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, fileID uuid.UUID, errMsg string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE file_records
		 SET status = $2, error_message = $3, failed_at = now(), retry_count = retry_count + 1
		 WHERE file_id = $1 AND status = ANY($4)`,
		fileID, models.StatusFailed, errMsg,
		[]string{models.StatusPending, models.StatusProcessing})
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) MarkCancelled(ctx context.Context, fileID uuid.UUID) (bool, error) {
	return s.transition(ctx,
		`UPDATE file_records SET status = $2 WHERE file_id = $1 AND status = ANY($3)`,
		fileID, models.StatusCancelled,
		[]string{models.StatusPending, models.StatusProcessing})
}

func (s *PostgresStore) ResetForRetry(ctx context.Context, fileID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE file_records SET status = $2, error_message = NULL, progress = 0
		 WHERE file_id = $1 AND status = $3`,
		fileID, models.StatusPending, models.StatusFailed)
	if err != nil {
		return false, fmt.Errorf("reset for retry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, fileID uuid.UUID, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := s.db.Exec(ctx,
		`UPDATE file_records SET progress = $2 WHERE file_id = $1`, fileID, progress)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, fileID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM file_records WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.countGrouped(ctx, `SELECT status, count(*) FROM file_records GROUP BY status`)
}

func (s *PostgresStore) CountByType(ctx context.Context) (map[string]int64, error) {
	return s.countGrouped(ctx, `SELECT processing_type, count(*) FROM file_records GROUP BY processing_type`)
}

func (s *PostgresStore) CountStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM file_records WHERE status = $1 AND started_at < $2`,
		models.StatusProcessing, olderThan).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stale processing: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.FileRecord, error) {
	rows, err := s.db.Query(ctx,
		`DELETE FROM file_records
		 WHERE status = ANY($1) AND COALESCE(completed_at, failed_at, created_at) < $2
		 RETURNING `+recordColumns,
		[]string{models.StatusCompleted, models.StatusFailed}, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete old records: %w", err)
	}
	defer rows.Close()

	var deleted []models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deleted record: %w", err)
		}
		deleted = append(deleted, *rec)
	}
	return deleted, rows.Err()
}

func (s *PostgresStore) transition(ctx context.Context, sql string, args ...any) (bool, error) {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("status transition: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) countGrouped(ctx context.Context, sql string) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func scanRecord(row pgx.Row) (*models.FileRecord, error) {
	var rec models.FileRecord
	err := row.Scan(
		&rec.FileID, &rec.UserID, &rec.Status, &rec.ProcessingType, &rec.OriginalName,
		&rec.StoredFileName, &rec.MimeType, &rec.FileSizeBytes, &rec.ProcessedArtifactRef,
		&rec.Progress, &rec.ErrorMessage, &rec.RetryCount, &rec.Metadata,
		&rec.CreatedAt, &rec.StartedAt, &rec.CompletedAt, &rec.FailedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// FileRecord is the durable status row for one uploaded file. It is owned by
// the record store; all mutations go through conditional status transitions.
type FileRecord struct {
	FileID               uuid.UUID      `json:"file_id" db:"file_id"`
	UserID               *int64         `json:"user_id,omitempty" db:"user_id"`
	Status               string         `json:"status" db:"status"`
	ProcessingType       string         `json:"processing_type" db:"processing_type"`
	OriginalName         string         `json:"original_name" db:"original_name"`
	StoredFileName       string         `json:"stored_file_name" db:"stored_file_name"`
	MimeType             string         `json:"mime_type,omitempty" db:"mime_type"`
	FileSizeBytes        int64          `json:"file_size_bytes" db:"file_size_bytes"`
	ProcessedArtifactRef *string        `json:"processed_artifact_ref,omitempty" db:"processed_artifact_ref"`
	Progress             int            `json:"progress" db:"progress"`
	ErrorMessage         *string        `json:"error_message,omitempty" db:"error_message"`
	RetryCount           int            `json:"retry_count" db:"retry_count"`
	Metadata             map[string]any `json:"metadata" db:"metadata"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	StartedAt            *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	FailedAt             *time.Time     `json:"failed_at,omitempty" db:"failed_at"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

func (r *FileRecord) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled
}

package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajaydixit/fileflow/internal/config"
	"github.com/ajaydixit/fileflow/internal/models"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/record"
	"github.com/ajaydixit/fileflow/internal/storage"
)

var (
	ErrUnsupportedProcessingType = errors.New("unsupported processing type")
	ErrFileTooLarge              = errors.New("file exceeds upload size limit")
	ErrNotEligible               = errors.New("operation not eligible for current status")
	ErrNotReady                  = errors.New("processed file not ready")
)

// ErrNotFound is re-exported so callers need only this package.
var ErrNotFound = record.ErrNotFound

// Metadata keys the orchestrator adds on completion, consumed by download
// resolution.
const (
	metaOutputMime = "output_mime_type"
)

// Enqueuer abstracts the durable queue for upload/retry.
type Enqueuer interface {
	EnqueueFileProcess(payload queue.FileProcessPayload) error
}

// QueueInspector reports queue depth for statistics; may be nil.
type QueueInspector interface {
	Depth() (int64, error)
}

// Orchestrator coordinates upload intake, queued processing, status
// transitions and download resolution. All status mutations go through the
// record store's compare-and-swap transitions.
type Orchestrator struct {
	store     record.Store
	blobs     storage.Storage
	registry  *processor.Registry
	enqueuer  Enqueuer
	inspector QueueInspector

	maxUploadBytes int64
	staleAfter     time.Duration
	procTimeout    time.Duration
}

func New(store record.Store, blobs storage.Storage, registry *processor.Registry,
	enqueuer Enqueuer, inspector QueueInspector, cfg config.ProcessingConfig) *Orchestrator {
	return &Orchestrator{
		store:          store,
		blobs:          blobs,
		registry:       registry,
		enqueuer:       enqueuer,
		inspector:      inspector,
		maxUploadBytes: cfg.MaxUploadBytes,
		staleAfter:     cfg.StaleAfter,
		procTimeout:    cfg.JobTimeout,
	}
}

type UploadRequest struct {
	Data           io.Reader
	Size           int64
	OriginalName   string
	MimeType       string
	ProcessingType string
	UserID         *int64
	Metadata       map[string]any
}

// Upload persists the original blob, creates the pending record and enqueues
// one processing task. On any failure the earlier steps are rolled back so
// no partial state survives.
func (o *Orchestrator) Upload(ctx context.Context, req UploadRequest) (*models.FileRecord, error) {
	if !o.registry.Known(req.ProcessingType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProcessingType, req.ProcessingType)
	}
	if o.maxUploadBytes > 0 && req.Size > o.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, req.Size)
	}

	fileID := uuid.New()
	storedFileName := fileID.String()

	if err := o.blobs.Put(ctx, storedFileName, req.Data, req.MimeType); err != nil {
		return nil, fmt.Errorf("store original blob: %w", err)
	}

	rec := &models.FileRecord{
		FileID:         fileID,
		UserID:         req.UserID,
		Status:         models.StatusPending,
		ProcessingType: req.ProcessingType,
		OriginalName:   req.OriginalName,
		StoredFileName: storedFileName,
		MimeType:       req.MimeType,
		FileSizeBytes:  req.Size,
		Metadata:       req.Metadata,
	}
	if err := o.store.Create(ctx, rec); err != nil {
		o.discardBlob(ctx, storedFileName)
		return nil, err
	}

	err := o.enqueuer.EnqueueFileProcess(queue.FileProcessPayload{
		FileID:         fileID.String(),
		StoredFileName: storedFileName,
		ProcessingType: req.ProcessingType,
		UserID:         req.UserID,
	})
	if err != nil {
		o.discardBlob(ctx, storedFileName)
		if delErr := o.store.Delete(ctx, fileID); delErr != nil {
			slog.Error("rollback of file record failed", "file_id", fileID, "error", delErr)
		}
		return nil, fmt.Errorf("enqueue processing task: %w", err)
	}

	slog.Info("file uploaded and queued", "file_id", fileID, "type", req.ProcessingType)
	return rec, nil
}

// ProcessOne executes the processing task for one file. It is safe under
// at-least-once delivery: terminal records are detected up front and the
// completion write is a compare-and-swap that a cancel can pre-empt.
//
// Errors returned from here are retryable at the queue layer; the record has
// already been marked failed when that matters. A processor-reported failure
// (malformed input) is not an error: the record settles to failed and the
// task succeeds.
func (o *Orchestrator) ProcessOne(ctx context.Context, fileID uuid.UUID) error {
	rec, err := o.store.Get(ctx, fileID)
	if err != nil {
		return fmt.Errorf("load record %s: %w", fileID, err)
	}

	if rec.IsTerminal() {
		slog.Info("skipping terminal record", "file_id", fileID, "status", rec.Status)
		return nil
	}

	ok, err := o.store.MarkProcessing(ctx, fileID)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if !ok {
		// raced into a terminal state between the read and the swap
		slog.Info("record no longer processable", "file_id", fileID)
		return nil
	}

	data, err := o.readBlob(ctx, rec.StoredFileName)
	if err != nil {
		msg := fmt.Sprintf("original file unavailable: %v", err)
		if _, ferr := o.store.MarkFailed(ctx, fileID, msg); ferr != nil {
			slog.Error("failed to record blob error", "file_id", fileID, "error", ferr)
		}
		return fmt.Errorf("read original blob: %w", err)
	}

	if err := o.store.UpdateProgress(ctx, fileID, 25); err != nil {
		slog.Warn("progress update failed", "file_id", fileID, "error", err)
	}

	proc := o.registry.Resolve(rec.ProcessingType)
	result, err := o.runProcessor(ctx, proc, data, processor.FileInfo{
		Name:     rec.OriginalName,
		Size:     rec.FileSizeBytes,
		MimeType: rec.MimeType,
	})
	if err != nil {
		if _, ferr := o.store.MarkFailed(ctx, fileID, err.Error()); ferr != nil {
			slog.Error("failed to record processor fault", "file_id", fileID, "error", ferr)
		}
		return err
	}

	if !result.Success {
		if _, ferr := o.store.MarkFailed(ctx, fileID, result.Err); ferr != nil {
			return fmt.Errorf("record processor failure: %w", ferr)
		}
		slog.Warn("processing reported failure", "file_id", fileID, "error", result.Err)
		return nil
	}

	if err := o.store.UpdateProgress(ctx, fileID, 75); err != nil {
		slog.Warn("progress update failed", "file_id", fileID, "error", err)
	}

	artifactKey := storage.ArtifactKey(fileID.String(), result.Extension)
	if err := o.blobs.Put(ctx, artifactKey, bytes.NewReader(result.Content), result.MimeType); err != nil {
		msg := fmt.Sprintf("store processed artifact: %v", err)
		if _, ferr := o.store.MarkFailed(ctx, fileID, msg); ferr != nil {
			slog.Error("failed to record artifact error", "file_id", fileID, "error", ferr)
		}
		return fmt.Errorf("store processed artifact: %w", err)
	}

	meta := make(map[string]any, len(result.Metadata)+1)
	for k, v := range result.Metadata {
		meta[k] = v
	}
	meta[metaOutputMime] = result.MimeType

	ok, err = o.store.MarkCompleted(ctx, fileID, artifactKey, meta)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !ok {
		// cancelled (or retried) while we were processing; the completion
		// must not be observed, so drop the artifact we just wrote
		o.discardBlob(ctx, artifactKey)
		slog.Info("completion pre-empted, artifact discarded", "file_id", fileID)
		return nil
	}

	slog.Info("file processing completed", "file_id", fileID, "artifact", artifactKey)
	return nil
}

// RecordTerminalFailure settles a record to failed after the queue has
// exhausted its attempts. Safe to call when the record already settled.
func (o *Orchestrator) RecordTerminalFailure(ctx context.Context, fileID uuid.UUID, errMsg string) {
	ok, err := o.store.MarkFailed(ctx, fileID, errMsg)
	if err != nil {
		slog.Error("failed to settle record after final attempt", "file_id", fileID, "error", err)
		return
	}
	if ok {
		slog.Error("file processing permanently failed", "file_id", fileID, "error", errMsg)
	}
}

func (o *Orchestrator) GetStatus(ctx context.Context, fileID uuid.UUID) (*models.FileRecord, error) {
	return o.store.Get(ctx, fileID)
}

// Retry re-queues a failed file. Only records in failed are eligible.
func (o *Orchestrator) Retry(ctx context.Context, fileID uuid.UUID) error {
	rec, err := o.store.Get(ctx, fileID)
	if err != nil {
		return err
	}

	ok, err := o.store.ResetForRetry(ctx, fileID)
	if err != nil {
		return fmt.Errorf("reset for retry: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: retry requires failed, have %s", ErrNotEligible, rec.Status)
	}

	err = o.enqueuer.EnqueueFileProcess(queue.FileProcessPayload{
		FileID:         fileID.String(),
		StoredFileName: rec.StoredFileName,
		ProcessingType: rec.ProcessingType,
		UserID:         rec.UserID,
	})
	if err != nil {
		return fmt.Errorf("enqueue retry task: %w", err)
	}

	slog.Info("file re-queued for processing", "file_id", fileID, "retry_count", rec.RetryCount)
	return nil
}

// Cancel overrides pending/processing records. Cancelling an already
// cancelled record succeeds (idempotent); completed and failed records are
// rejected.
func (o *Orchestrator) Cancel(ctx context.Context, fileID uuid.UUID) error {
	ok, err := o.store.MarkCancelled(ctx, fileID)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	if ok {
		slog.Info("file processing cancelled", "file_id", fileID)
		return nil
	}

	rec, err := o.store.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if rec.Status == models.StatusCancelled {
		return nil
	}
	return fmt.Errorf("%w: cancel from %s", ErrNotEligible, rec.Status)
}

// Download points at the processed artifact blob.
type Download struct {
	BlobKey           string
	SuggestedFileName string
	MimeType          string
}

// ResolveDownload resolves strictly via the recorded artifact reference;
// it never probes storage for candidate names.
func (o *Orchestrator) ResolveDownload(ctx context.Context, fileID uuid.UUID) (*Download, error) {
	rec, err := o.store.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrNotReady, rec.Status)
	}
	if rec.ProcessedArtifactRef == nil {
		return nil, fmt.Errorf("completed record %s has no artifact reference", fileID)
	}

	mimeType := "application/octet-stream"
	if m, ok := rec.Metadata[metaOutputMime].(string); ok && m != "" {
		mimeType = m
	}

	return &Download{
		BlobKey:           *rec.ProcessedArtifactRef,
		SuggestedFileName: suggestedName(rec.OriginalName, *rec.ProcessedArtifactRef),
		MimeType:          mimeType,
	}, nil
}

func suggestedName(originalName, artifactRef string) string {
	ext := filepath.Ext(artifactRef)
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	if base == "" {
		return "processed" + ext
	}
	return base + "_processed" + ext
}

// Statistics summarizes pipeline health.
type Statistics struct {
	CountsByStatus       map[string]int64 `json:"counts_by_status"`
	CountsByType         map[string]int64 `json:"counts_by_type"`
	QueueDepth           int64            `json:"queue_depth"`
	StaleProcessingCount int64            `json:"stale_processing_count"`
}

func (o *Orchestrator) GetStatistics(ctx context.Context) (*Statistics, error) {
	byStatus, err := o.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := o.store.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	stale, err := o.store.CountStaleProcessing(ctx, time.Now().Add(-o.staleAfter))
	if err != nil {
		return nil, err
	}

	var depth int64
	if o.inspector != nil {
		if d, derr := o.inspector.Depth(); derr == nil {
			depth = d
		} else {
			slog.Warn("queue depth unavailable", "error", derr)
		}
	}

	return &Statistics{
		CountsByStatus:       byStatus,
		CountsByType:         byType,
		QueueDepth:           depth,
		StaleProcessingCount: stale,
	}, nil
}

// Cleanup deletes completed/failed records settled before the retention
// window, along with their blobs. Pending and processing records are never
// touched regardless of age.
func (o *Orchestrator) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted, err := o.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old records: %w", err)
	}

	for _, rec := range deleted {
		o.discardBlob(ctx, rec.StoredFileName)
		if rec.ProcessedArtifactRef != nil {
			o.discardBlob(ctx, *rec.ProcessedArtifactRef)
		}
	}

	if len(deleted) > 0 {
		slog.Info("storage cleanup removed records", "count", len(deleted), "retention_days", retentionDays)
	}
	return len(deleted), nil
}

// runProcessor bounds processor execution; a stuck processor surfaces as a
// retryable error instead of a hung task.
func (o *Orchestrator) runProcessor(ctx context.Context, p processor.Processor, data []byte, info processor.FileInfo) (processor.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.procTimeout)
	defer cancel()

	done := make(chan processor.Result, 1)
	go func() {
		done <- p.Process(data, info)
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return processor.Result{}, fmt.Errorf("processor %s: %w", p.Type(), ctx.Err())
	}
}

func (o *Orchestrator) readBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := o.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (o *Orchestrator) discardBlob(ctx context.Context, key string) {
	if err := o.blobs.Delete(ctx, key); err != nil {
		slog.Warn("blob delete failed", "key", key, "error", err)
	}
}

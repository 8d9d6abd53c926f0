package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/record"
)

// FileWorker consumes file:process tasks. All the real work lives in the
// orchestrator; this layer only translates queue semantics: skip-vs-retry
// decisions and final-attempt settling.
type FileWorker struct {
	orch *orchestrator.Orchestrator
}

func NewFileWorker(orch *orchestrator.Orchestrator) *FileWorker {
	return &FileWorker{orch: orch}
}

func (w *FileWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.FileProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal file:process payload: %v: %w", err, asynq.SkipRetry)
	}

	fileID, err := uuid.Parse(payload.FileID)
	if err != nil {
		return fmt.Errorf("parse file ID %q: %v: %w", payload.FileID, err, asynq.SkipRetry)
	}

	slog.Info("processing file task", "file_id", fileID, "type", payload.ProcessingType)

	err = w.orch.ProcessOne(ctx, fileID)
	if err == nil {
		return nil
	}

	if errors.Is(err, record.ErrNotFound) {
		// no record to settle; retrying cannot help
		slog.Warn("dropping task for missing record", "file_id", fileID)
		return fmt.Errorf("record %s not found: %w", fileID, asynq.SkipRetry)
	}

	if isFinalAttempt(ctx) {
		w.orch.RecordTerminalFailure(ctx, fileID, err.Error())
	}
	return err
}

// isFinalAttempt reports whether the queue will not redeliver after this
// failure.
func isFinalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= maxRetry
}

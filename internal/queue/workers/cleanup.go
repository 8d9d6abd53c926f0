package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/queue"
)

// CleanupWorker consumes the scheduled storage:cleanup task, reaping settled
// records past the retention window together with their blobs.
type CleanupWorker struct {
	orch          *orchestrator.Orchestrator
	retentionDays int
}

func NewCleanupWorker(orch *orchestrator.Orchestrator, retentionDays int) *CleanupWorker {
	return &CleanupWorker{orch: orch, retentionDays: retentionDays}
}

func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retention := w.retentionDays
	var payload queue.StorageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err == nil && payload.RetentionDays > 0 {
		retention = payload.RetentionDays
	}

	n, err := w.orch.Cleanup(ctx, retention)
	if err != nil {
		return fmt.Errorf("storage cleanup: %w", err)
	}
	slog.Info("storage cleanup finished", "deleted", n, "retention_days", retention)
	return nil
}

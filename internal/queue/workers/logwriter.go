package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/queue"
)

// LogWriterWorker consumes log:write tasks, replaying deferred application
// log entries through the structured logger on the worker side.
type LogWriterWorker struct{}

func NewLogWriterWorker() *LogWriterWorker {
	return &LogWriterWorker{}
}

func (w *LogWriterWorker) ProcessTask(_ context.Context, t *asynq.Task) error {
	var payload queue.LogWritePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal log:write payload: %v: %w", err, asynq.SkipRetry)
	}

	attrs := make([]any, 0, len(payload.Context)*2)
	for k, v := range payload.Context {
		attrs = append(attrs, k, v)
	}

	switch payload.Level {
	case "error":
		slog.Error(payload.Message, attrs...)
	case "warn":
		slog.Warn(payload.Message, attrs...)
	case "debug":
		slog.Debug(payload.Message, attrs...)
	default:
		slog.Info(payload.Message, attrs...)
	}
	return nil
}

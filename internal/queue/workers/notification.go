package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/notification"
	"github.com/ajaydixit/fileflow/internal/queue"
)

// NotificationWorker consumes notification:deliver tasks and hands them to
// the channel sender registered for the payload's channel.
type NotificationWorker struct {
	senders *notification.SenderRegistry
}

func NewNotificationWorker(senders *notification.SenderRegistry) *NotificationWorker {
	return &NotificationWorker{senders: senders}
}

func (w *NotificationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.NotificationDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal notification:deliver payload: %v: %w", err, asynq.SkipRetry)
	}

	sender, err := w.senders.Resolve(payload.Channel)
	if err != nil {
		// unknown channel is permanent, retries see the same registry
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := sender.Send(ctx, notification.Message{
		NotificationID: payload.NotificationID,
		UserID:         payload.UserID,
		Subject:        payload.Subject,
		Body:           payload.Message,
		Metadata:       payload.Metadata,
	}); err != nil {
		return fmt.Errorf("deliver notification %s via %s: %w", payload.NotificationID, payload.Channel, err)
	}
	return nil
}

package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ajaydixit/fileflow/internal/queue"
)

// Channels a notification can be routed through.
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelPush    = "push"
	ChannelWebhook = "webhook"
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

type Enqueuer interface {
	EnqueueNotificationDeliver(payload queue.NotificationDeliverPayload) error
}

// Service accepts notification requests and defers delivery to the queue.
// Dispatch returns as soon as the task is durably enqueued; actual sending
// happens on the worker.
type Service struct {
	enqueuer Enqueuer
}

func NewService(enqueuer Enqueuer) *Service {
	return &Service{enqueuer: enqueuer}
}

type DispatchRequest struct {
	UserID   int64          `json:"user_id"`
	Channel  string         `json:"channel"`
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
	Priority string         `json:"priority"`
	Metadata map[string]any `json:"metadata"`
}

func (r *DispatchRequest) validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if r.Message == "" {
		return fmt.Errorf("message is required")
	}
	switch r.Channel {
	case "":
		r.Channel = ChannelEmail
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelWebhook:
	default:
		return fmt.Errorf("unknown channel: %s", r.Channel)
	}
	switch r.Priority {
	case "":
		r.Priority = PriorityNormal
	case PriorityHigh, PriorityNormal, PriorityLow:
	default:
		return fmt.Errorf("unknown priority: %s", r.Priority)
	}
	return nil
}

// Dispatch validates the request and enqueues a delivery task. The returned
// ID identifies the notification in worker logs.
func (s *Service) Dispatch(_ context.Context, req DispatchRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", fmt.Errorf("invalid notification: %w", err)
	}

	id := "notif_" + uuid.New().String()
	err := s.enqueuer.EnqueueNotificationDeliver(queue.NotificationDeliverPayload{
		NotificationID: id,
		UserID:         req.UserID,
		Channel:        req.Channel,
		Subject:        req.Subject,
		Message:        req.Message,
		Priority:       req.Priority,
		Metadata:       req.Metadata,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("enqueue notification: %w", err)
	}

	slog.Info("notification queued", "notification_id", id, "channel", req.Channel, "priority", req.Priority)
	return id, nil
}

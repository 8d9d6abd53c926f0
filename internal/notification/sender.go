package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Message is a notification ready for delivery on one channel.
type Message struct {
	NotificationID string
	UserID         int64
	Subject        string
	Body           string
	Metadata       map[string]any
}

// Sender delivers a message over one channel. Errors are retryable at the
// queue layer.
type Sender interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// SenderRegistry maps channel names to senders.
type SenderRegistry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

func NewSenderRegistry() *SenderRegistry {
	return &SenderRegistry{senders: make(map[string]Sender)}
}

// NewDefaultSenderRegistry wires the built-in channels. Email, SMS and push
// are log-backed until real providers are configured.
func NewDefaultSenderRegistry() *SenderRegistry {
	r := NewSenderRegistry()
	r.Register(NewLogSender(ChannelEmail))
	r.Register(NewLogSender(ChannelSMS))
	r.Register(NewLogSender(ChannelPush))
	return r
}

func (r *SenderRegistry) Register(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[s.Channel()] = s
}

func (r *SenderRegistry) Resolve(channel string) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[channel]
	if !ok {
		return nil, fmt.Errorf("no sender registered for channel %q", channel)
	}
	return s, nil
}

// LogSender records the delivery in the application log. It stands in for
// provider integrations in development and tests.
type LogSender struct {
	channel string
}

func NewLogSender(channel string) *LogSender {
	return &LogSender{channel: channel}
}

func (s *LogSender) Channel() string { return s.channel }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("notification delivered",
		"channel", s.channel,
		"notification_id", msg.NotificationID,
		"user_id", msg.UserID,
		"subject", msg.Subject,
	)
	return nil
}

// WebhookSender posts the message as JSON to a configured endpoint, signed
// with an HMAC-SHA256 of the body so the receiver can verify origin.
type WebhookSender struct {
	url        string
	secret     string
	httpClient *http.Client
}

func NewWebhookSender(url, secret string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *WebhookSender) Channel() string { return ChannelWebhook }

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"notification_id": msg.NotificationID,
		"user_id":         msg.UserID,
		"subject":         msg.Subject,
		"message":         msg.Body,
		"metadata":        msg.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", msg.NotificationID)
	req.Header.Set("X-Notification-Signature", sign(payload, s.secret))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}

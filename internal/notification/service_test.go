package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajaydixit/fileflow/internal/queue"
)

type captureEnqueuer struct {
	payloads []queue.NotificationDeliverPayload
}

func (c *captureEnqueuer) EnqueueNotificationDeliver(p queue.NotificationDeliverPayload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

func TestDispatchQueuesDelivery(t *testing.T) {
	enq := &captureEnqueuer{}
	svc := NewService(enq)

	id, err := svc.Dispatch(context.Background(), DispatchRequest{
		UserID:  42,
		Channel: ChannelSMS,
		Message: "your file is ready",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "notif_"))

	require.Len(t, enq.payloads, 1)
	p := enq.payloads[0]
	assert.Equal(t, id, p.NotificationID)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, ChannelSMS, p.Channel)
	assert.Equal(t, PriorityNormal, p.Priority, "priority defaults to normal")
	assert.NotEmpty(t, p.CreatedAt)
}

func TestDispatchDefaultsChannelToEmail(t *testing.T) {
	enq := &captureEnqueuer{}
	svc := NewService(enq)

	_, err := svc.Dispatch(context.Background(), DispatchRequest{
		UserID:  1,
		Message: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, enq.payloads[0].Channel)
}

func TestDispatchValidation(t *testing.T) {
	svc := NewService(&captureEnqueuer{})
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, DispatchRequest{Message: "no user"})
	assert.ErrorContains(t, err, "user_id is required")

	_, err = svc.Dispatch(ctx, DispatchRequest{UserID: 1})
	assert.ErrorContains(t, err, "message is required")

	_, err = svc.Dispatch(ctx, DispatchRequest{UserID: 1, Message: "x", Channel: "pigeon"})
	assert.ErrorContains(t, err, "unknown channel")

	_, err = svc.Dispatch(ctx, DispatchRequest{UserID: 1, Message: "x", Priority: "urgent"})
	assert.ErrorContains(t, err, "unknown priority")
}

func TestSenderRegistryResolve(t *testing.T) {
	reg := NewDefaultSenderRegistry()

	s, err := reg.Resolve(ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, s.Channel())

	_, err = reg.Resolve("carrier_pigeon")
	assert.Error(t, err)
}

func TestWebhookSenderSignsPayload(t *testing.T) {
	var gotSig, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Notification-Signature")
		gotID = r.Header.Get("X-Notification-ID")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "topsecret")
	err := sender.Send(context.Background(), Message{
		NotificationID: "notif_test",
		UserID:         7,
		Body:           "done",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotSig, "sha256="))
	assert.Equal(t, "notif_test", gotID)
}

func TestWebhookSenderErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "s")
	err := sender.Send(context.Background(), Message{NotificationID: "n", UserID: 1, Body: "x"})
	assert.ErrorContains(t, err, "502")
}

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/config"
)

// Client enqueues tasks onto the Redis-backed durable queue. Delivery is
// at-least-once; consumers are responsible for idempotency.
type Client struct {
	client      *asynq.Client
	maxRetry    int
	taskTimeout time.Duration
}

func NewClient(cfg config.RedisConfig, proc config.ProcessingConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		maxRetry:    proc.JobMaxRetry,
		taskTimeout: proc.JobTimeout,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueFileProcess(payload FileProcessPayload) error {
	return c.enqueue(TypeFileProcess, payload,
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(c.taskTimeout),
		asynq.Queue(QueueDefault),
	)
}

func (c *Client) EnqueueNotificationDeliver(payload NotificationDeliverPayload) error {
	return c.enqueue(TypeNotificationDeliver, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue(queueForPriority(payload.Priority)),
	)
}

func (c *Client) EnqueueLogWrite(payload LogWritePayload) error {
	return c.enqueue(TypeLogWrite, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue(QueueLow),
	)
}

func (c *Client) EnqueueStorageCleanup(payload StorageCleanupPayload) error {
	return c.enqueue(TypeStorageCleanup, payload,
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueLow),
	)
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

func queueForPriority(priority string) string {
	switch priority {
	case "high":
		return QueueCritical
	case "low":
		return QueueLow
	default:
		return QueueDefault
	}
}

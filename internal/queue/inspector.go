package queue

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/ajaydixit/fileflow/internal/config"
)

// Inspector reports queue depth for the statistics endpoint.
type Inspector struct {
	inspector *asynq.Inspector
}

func NewInspector(cfg config.RedisConfig) *Inspector {
	return &Inspector{
		inspector: asynq.NewInspector(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Depth sums pending and in-flight tasks across all queues.
func (i *Inspector) Depth() (int64, error) {
	var total int64
	for _, q := range []string{QueueCritical, QueueDefault, QueueLow} {
		info, err := i.inspector.GetQueueInfo(q)
		if err != nil {
			// queues appear lazily on first enqueue
			continue
		}
		total += int64(info.Pending + info.Active + info.Retry + info.Scheduled)
	}
	return total, nil
}

func (i *Inspector) Close() error {
	if err := i.inspector.Close(); err != nil {
		return fmt.Errorf("close inspector: %w", err)
	}
	return nil
}

package queue

const (
	TypeFileProcess         = "file:process"
	TypeNotificationDeliver = "notification:deliver"
	TypeLogWrite            = "log:write"
	TypeStorageCleanup      = "storage:cleanup"
)

// Queue names, consumed with 6/3/1 weights by the worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// FileProcessPayload carries enough to reprocess without re-querying the
// record, but the worker always reloads the authoritative record for status
// decisions.
type FileProcessPayload struct {
	FileID         string `json:"file_id"`
	StoredFileName string `json:"stored_file_name"`
	ProcessingType string `json:"processing_type"`
	UserID         *int64 `json:"user_id,omitempty"`
}

type NotificationDeliverPayload struct {
	NotificationID string         `json:"notification_id"`
	UserID         int64          `json:"user_id"`
	Channel        string         `json:"channel"` // email, sms, push
	Subject        string         `json:"subject,omitempty"`
	Message        string         `json:"message"`
	Priority       string         `json:"priority,omitempty"` // high, normal, low
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

type LogWritePayload struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

type StorageCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

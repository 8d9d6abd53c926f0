package handlers

import (
	"net/http"
	"strconv"

	"github.com/ajaydixit/fileflow/internal/queue"
)

// CleanupEnqueuer triggers a storage cleanup run on the worker.
type CleanupEnqueuer interface {
	EnqueueStorageCleanup(payload queue.StorageCleanupPayload) error
}

type AdminHandler struct {
	enqueuer CleanupEnqueuer
}

func NewAdminHandler(enqueuer CleanupEnqueuer) *AdminHandler {
	return &AdminHandler{enqueuer: enqueuer}
}

// Cleanup enqueues an out-of-schedule retention sweep. days=0 uses the
// worker's configured retention.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var days int
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid days"})
			return
		}
		days = n
	}

	if err := h.enqueuer.EnqueueStorageCleanup(queue.StorageCleanupPayload{RetentionDays: days}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

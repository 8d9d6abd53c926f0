package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ajaydixit/fileflow/internal/queue"
)

// LogEnqueuer defers a log entry to the worker via the durable queue.
type LogEnqueuer interface {
	EnqueueLogWrite(payload queue.LogWritePayload) error
}

type LogsHandler struct {
	enqueuer LogEnqueuer
}

func NewLogsHandler(enqueuer LogEnqueuer) *LogsHandler {
	return &LogsHandler{enqueuer: enqueuer}
}

func (h *LogsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var payload queue.LogWritePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if payload.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message required"})
		return
	}
	if payload.Level == "" {
		payload.Level = "info"
	}

	if err := h.enqueuer.EnqueueLogWrite(payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

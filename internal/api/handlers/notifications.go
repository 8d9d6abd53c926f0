package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ajaydixit/fileflow/internal/notification"
)

type NotificationsHandler struct {
	svc *notification.Service
}

func NewNotificationsHandler(svc *notification.Service) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

func (h *NotificationsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req notification.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	id, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"notification_id": id,
		"status":          "queued",
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ajaydixit/fileflow/internal/cache"
	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/record"
	"github.com/ajaydixit/fileflow/internal/storage"
)

type FilesHandler struct {
	orch           *orchestrator.Orchestrator
	blobs          storage.Storage
	registry       *processor.Registry
	cache          *cache.Cache
	maxUploadBytes int64
}

func NewFilesHandler(orch *orchestrator.Orchestrator, blobs storage.Storage, registry *processor.Registry, c *cache.Cache, maxUploadBytes int64) *FilesHandler {
	return &FilesHandler{
		orch:           orch,
		blobs:          blobs,
		registry:       registry,
		cache:          c,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	processingType := r.FormValue("processing_type")
	if processingType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "processing_type required"})
		return
	}

	var userID *int64
	if v := r.FormValue("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		userID = &id
	}

	var metadata map[string]any
	if v := r.FormValue("metadata"); v != "" {
		if err := json.Unmarshal([]byte(v), &metadata); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "metadata must be a JSON object"})
			return
		}
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	rec, err := h.orch.Upload(r.Context(), orchestrator.UploadRequest{
		Data:           file,
		Size:           header.Size,
		OriginalName:   header.Filename,
		MimeType:       mimeType,
		ProcessingType: processingType,
		UserID:         userID,
		Metadata:       metadata,
	})
	if err != nil {
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"file_id":      rec.FileID,
		"status":       rec.Status,
		"status_url":   fmt.Sprintf("/api/v1/files/%s/status", rec.FileID),
		"download_url": fmt.Sprintf("/api/v1/files/%s/download", rec.FileID),
	})
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrUnsupportedProcessingType):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *FilesHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFileID(w, r)
	if !ok {
		return
	}

	rec, err := h.orch.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *FilesHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFileID(w, r)
	if !ok {
		return
	}

	if err := h.orch.Retry(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"file_id": id.String(), "status": "pending"})
}

func (h *FilesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFileID(w, r)
	if !ok {
		return
	}

	if err := h.orch.Cancel(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_id": id.String(), "status": "cancelled"})
}

func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, record.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
	case errors.Is(err, orchestrator.ErrNotEligible):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFileID(w, r)
	if !ok {
		return
	}

	dl, err := h.orch.ResolveDownload(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, record.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		case errors.Is(err, orchestrator.ErrNotReady):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	rc, err := h.blobs.Get(r.Context(), dl.BlobKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processed file unavailable"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.SuggestedFileName))
	io.Copy(w, rc)
}

func (h *FilesHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": h.registry.Types()})
}

const statsCacheKey = "stats:files"

func (h *FilesHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached orchestrator.Statistics
		if err := h.cache.Get(r.Context(), statsCacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	stats, err := h.orch.GetStatistics(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), statsCacheKey, stats, 10*time.Second); err != nil {
			slog.Warn("statistics cache write failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseFileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file ID"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

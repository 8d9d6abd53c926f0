package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajaydixit/fileflow/internal/config"
	"github.com/ajaydixit/fileflow/internal/orchestrator"
	"github.com/ajaydixit/fileflow/internal/processor"
	"github.com/ajaydixit/fileflow/internal/queue"
	"github.com/ajaydixit/fileflow/internal/record"
	"github.com/ajaydixit/fileflow/internal/storage"
)

type fakeEnqueuer struct {
	payloads []queue.FileProcessPayload
}

func (f *fakeEnqueuer) EnqueueFileProcess(p queue.FileProcessPayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

type filesTestEnv struct {
	router *chi.Mux
	orch   *orchestrator.Orchestrator
}

func newFilesTestEnv(t *testing.T) *filesTestEnv {
	t.Helper()

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	registry := processor.NewRegistry()
	orch := orchestrator.New(record.NewMemoryStore(), blobs, registry, &fakeEnqueuer{}, nil,
		config.ProcessingConfig{
			MaxUploadBytes: 1 << 20,
			JobTimeout:     5 * time.Second,
			StaleAfter:     30 * time.Minute,
		})

	h := NewFilesHandler(orch, blobs, registry, nil, 1<<20)

	r := chi.NewRouter()
	r.Post("/files", h.Upload)
	r.Get("/files/types", h.Types)
	r.Get("/files/statistics", h.Statistics)
	r.Get("/files/{id}/status", h.Status)
	r.Post("/files/{id}/retry", h.Retry)
	r.Post("/files/{id}/cancel", h.Cancel)
	r.Get("/files/{id}/download", h.Download)

	return &filesTestEnv{router: r, orch: orch}
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *filesTestEnv) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestUploadEndpoint(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": processor.TypeTextTransform,
		"user_id":         "42",
	}, "notes.txt", "hello")

	rr := env.do(http.MethodPost, "/files", body, ct)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
	assert.NotEmpty(t, resp["file_id"])
	assert.Contains(t, resp["status_url"], "/status")
	assert.Contains(t, resp["download_url"], "/download")
}

func TestUploadEndpointMissingProcessingType(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, nil, "notes.txt", "hello")
	rr := env.do(http.MethodPost, "/files", body, ct)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadEndpointUnknownType(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": "hologram",
	}, "notes.txt", "hello")
	rr := env.do(http.MethodPost, "/files", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestStatusEndpoint(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": processor.TypeTextTransform,
	}, "notes.txt", "hello")
	rr := env.do(http.MethodPost, "/files", body, ct)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created["file_id"].(string)

	rr = env.do(http.MethodGet, "/files/"+id+"/status", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "pending", rec["status"])
	assert.Equal(t, "notes.txt", rec["original_name"])
}

func TestStatusEndpointNotFound(t *testing.T) {
	env := newFilesTestEnv(t)

	rr := env.do(http.MethodGet, "/files/8f9a2f70-3b9f-47ae-9f61-3c9f1b1a2b3c/status", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodGet, "/files/not-a-uuid/status", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadEndpointLifecycle(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": processor.TypeTextTransform,
	}, "notes.txt", "alpha")
	rr := env.do(http.MethodPost, "/files", body, ct)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created["file_id"].(string)

	// not processed yet
	rr = env.do(http.MethodGet, "/files/"+id+"/download", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	fileID, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NoError(t, env.orch.ProcessOne(context.Background(), fileID))

	rr = env.do(http.MethodGet, "/files/"+id+"/download", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "notes_processed.txt")
	assert.Contains(t, rr.Body.String(), "001: ALPHA")
}

func TestCancelAndRetryEndpoints(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": processor.TypeTextTransform,
	}, "notes.txt", "alpha")
	rr := env.do(http.MethodPost, "/files", body, ct)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created["file_id"].(string)

	// pending record is not retryable
	rr = env.do(http.MethodPost, "/files/"+id+"/retry", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(http.MethodPost, "/files/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	// cancelled record is not retryable either
	rr = env.do(http.MethodPost, "/files/"+id+"/retry", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestTypesEndpoint(t *testing.T) {
	env := newFilesTestEnv(t)

	rr := env.do(http.MethodGet, "/files/types", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["types"], processor.TypeTextTransform)
	assert.Contains(t, resp["types"], processor.TypeMetadata)
}

func TestStatisticsEndpoint(t *testing.T) {
	env := newFilesTestEnv(t)

	body, ct := multipartUpload(t, map[string]string{
		"processing_type": processor.TypeTextTransform,
	}, "notes.txt", "alpha")
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/files", body, ct).Code)

	rr := env.do(http.MethodGet, "/files/statistics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	byStatus := stats["counts_by_status"].(map[string]any)
	assert.Equal(t, float64(1), byStatus["pending"])
}

package record

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajaydixit/fileflow/internal/models"
)

// MemoryStore keeps records in a map under a mutex. It mirrors the
// PostgresStore transition semantics and backs unit tests and single-node
// development without a database.
type MemoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.FileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*models.FileRecord)}
}

func (s *MemoryStore) Create(_ context.Context, rec *models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.FileID]; exists {
		return fmt.Errorf("insert file record: duplicate file_id %s", rec.FileID)
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	rec.CreatedAt = time.Now()

	stored := cloneRecord(rec)
	s.records[rec.FileID] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, fileID uuid.UUID) (*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fileID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) MarkProcessing(_ context.Context, fileID uuid.UUID) (bool, error) {
	return s.mutate(fileID, func(rec *models.FileRecord) bool {
		if !statusIn(rec, models.StatusPending, models.StatusProcessing, models.StatusFailed) {
			return false
		}
		now := time.Now()
		rec.Status = models.StatusProcessing
		rec.StartedAt = &now
		return true
	})
}

func (s *MemoryStore) MarkCompleted(_ context.Context, fileID uuid.UUID, artifactRef string, meta map[string]any) (bool, error) {
	return s.mutate(fileID, func(rec *models.FileRecord) bool {
		if rec.Status != models.StatusProcessing {
			return false
		}
		now := time.Now()
		rec.Status = models.StatusCompleted
		rec.ProcessedArtifactRef = &artifactRef
		rec.Progress = 100
		rec.CompletedAt = &now
		for k, v := range meta {
			rec.Metadata[k] = v
		}
		return true
	})
}

func (s *MemoryStore) MarkFailed(_ context.Context, fileID uuid.UUID, errMsg string) (bool, error) {
	return s.mutate(fileID, func(rec *models.FileRecord) bool {
		if !statusIn(rec, models.StatusPending, models.StatusProcessing) {
			return false
		}
		now := time.Now()
		rec.Status = models.StatusFailed
		rec.ErrorMessage = &errMsg
		rec.FailedAt = &now
		rec.RetryCount++
		return true
	})
}

func (s *MemoryStore) MarkCancelled(_ context.Context, fileID uuid.UUID) (bool, error) {
	return s.mutate(fileID, func(rec *models.FileRecord) bool {
		if !statusIn(rec, models.StatusPending, models.StatusProcessing) {
			return false
		}
		rec.Status = models.StatusCancelled
		return true
	})
}

func (s *MemoryStore) ResetForRetry(_ context.Context, fileID uuid.UUID) (bool, error) {
	return s.mutate(fileID, func(rec *models.FileRecord) bool {
		if rec.Status != models.StatusFailed {
			return false
		}
		rec.Status = models.StatusPending
		rec.ErrorMessage = nil
		rec.Progress = 0
		return true
	})
}

func (s *MemoryStore) UpdateProgress(_ context.Context, fileID uuid.UUID, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := s.mutate(fileID, func(rec *models.FileRecord) bool {
		rec.Progress = progress
		return true
	})
	return err
}

func (s *MemoryStore) Delete(_ context.Context, fileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[fileID]; !ok {
		return ErrNotFound
	}
	delete(s.records, fileID)
	return nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) CountByType(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, rec := range s.records {
		counts[rec.ProcessingType]++
	}
	return counts, nil
}

func (s *MemoryStore) CountStaleProcessing(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.records {
		if rec.Status == models.StatusProcessing && rec.StartedAt != nil && rec.StartedAt.Before(olderThan) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []models.FileRecord
	for id, rec := range s.records {
		if !statusIn(rec, models.StatusCompleted, models.StatusFailed) {
			continue
		}
		settled := rec.CreatedAt
		if rec.CompletedAt != nil {
			settled = *rec.CompletedAt
		} else if rec.FailedAt != nil {
			settled = *rec.FailedAt
		}
		if settled.Before(cutoff) {
			deleted = append(deleted, *cloneRecord(rec))
			delete(s.records, id)
		}
	}
	return deleted, nil
}

func (s *MemoryStore) mutate(fileID uuid.UUID, fn func(*models.FileRecord) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fileID]
	if !ok {
		return false, ErrNotFound
	}
	return fn(rec), nil
}

func statusIn(rec *models.FileRecord, statuses ...string) bool {
	for _, st := range statuses {
		if rec.Status == st {
			return true
		}
	}
	return false
}

func cloneRecord(rec *models.FileRecord) *models.FileRecord {
	cp := *rec
	cp.Metadata = make(map[string]any, len(rec.Metadata))
	for k, v := range rec.Metadata {
		cp.Metadata[k] = v
	}
	if rec.UserID != nil {
		v := *rec.UserID
		cp.UserID = &v
	}
	if rec.ProcessedArtifactRef != nil {
		v := *rec.ProcessedArtifactRef
		cp.ProcessedArtifactRef = &v
	}
	if rec.ErrorMessage != nil {
		v := *rec.ErrorMessage
		cp.ErrorMessage = &v
	}
	if rec.StartedAt != nil {
		v := *rec.StartedAt
		cp.StartedAt = &v
	}
	if rec.CompletedAt != nil {
		v := *rec.CompletedAt
		cp.CompletedAt = &v
	}
	if rec.FailedAt != nil {
		v := *rec.FailedAt
		cp.FailedAt = &v
	}
	return &cp
}

package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Analysis)}
}

// Create stores a new analysis.
func (r *MemoryRepo) Create(ctx context.Context, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[a.ID] = a
	return nil
}

// GetByID returns an analysis by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// MarkProcessing claims a queued analysis.
func (r *MemoryRepo) MarkProcessing(ctx context.Context, analysisID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[analysisID]
	if !ok {
		return false, ErrNotFound
	}
	if a.Status != StatusQueued {
		return false, nil
	}
	a.Status = StatusProcessing
	r.data[analysisID] = a
	return true, nil
}

// Complete records the result of a finished analysis.
func (r *MemoryRepo) Complete(ctx context.Context, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[a.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = StatusCompleted
	existing.Scores = a.Scores
	existing.Result = a.Result
	existing.Cached = a.Cached
	existing.Fallback = a.Fallback
	existing.AIModel = a.AIModel
	existing.ErrorMessage = ""
	existing.CompletedAt = a.CompletedAt
	r.data[a.ID] = existing
	return nil
}

// Fail marks an analysis failed.
func (r *MemoryRepo) Fail(ctx context.Context, analysisID, message string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[analysisID]
	if !ok {
		return ErrNotFound
	}
	a.Status = StatusFailed
	a.ErrorMessage = message
	a.CompletedAt = &at
	r.data[analysisID] = a
	return nil
}

// List returns analyses matching f, newest first.
func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Analysis, 0)
	for _, a := range r.data {
		if a.UserID != f.UserID {
			continue
		}
		if f.ResumeID != "" && a.ResumeID != f.ResumeID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Analysis{}, nil
	}
	end := len(out)
	if f.Limit > 0 && offset+f.Limit < end {
		end = offset + f.Limit
	}
	return out[offset:end], nil
}

// DeleteByResume drops every analysis of resumeID, mirroring the cascade
// Postgres applies when a resume row is deleted.
func (r *MemoryRepo) DeleteByResume(ctx context.Context, resumeID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, a := range r.data {
		if a.ResumeID == resumeID {
			delete(r.data, id)
			removed++
		}
	}
	return removed, nil
}

var _ Repo = (*MemoryRepo)(nil)

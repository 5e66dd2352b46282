package subscriber

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

// NewMemoryRepository builds an in-memory record store for development and
// testing. Records keep newest-first order, matching the Postgres listing.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]int)}
}

func (r *memoryRepository) List(_ context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.records[idx].Clone(), nil
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[rec.ID]; exists {
		return ErrDuplicateID
	}
	r.records = append([]Record{rec.Clone()}, r.records...)
	r.reindex()
	return nil
}

func (r *memoryRepository) Update(_ context.Context, id string, patch Patch) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	next := patch.Apply(r.records[idx])
	r.records[idx] = next
	return next.Clone(), nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.records = append(r.records[:idx], r.records[idx+1:]...)
	r.reindex()
	return nil
}

func (r *memoryRepository) reindex() {
	r.byID = make(map[string]int, len(r.records))
	for i, rec := range r.records {
		r.byID[rec.ID] = i
	}
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStorer keeps records in process memory. Useful for tests and for
// running the server without persistence.
type MemoryStorer struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStorer returns an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{records: make(map[string]*Record)}
}

func (m *MemoryStorer) Put(_ context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("cannot store nil record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return nil
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MemoryStorer) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStorer) Has(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[id]
	return ok, nil
}

func (m *MemoryStorer) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStorer) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound{ID: id}
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryStorer) Close() error {
	return nil
}

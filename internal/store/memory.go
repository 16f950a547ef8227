package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryCollection keeps documents in process memory. Contents are lost on restart.
type MemoryCollection[T Document] struct {
	name    string
	mu      sync.RWMutex
	docs    []T
	byID    map[string]int
	indexes map[string]map[string]string // index -> key -> id
}

// NewMemoryCollection creates an empty in-memory collection
func NewMemoryCollection[T Document](name string) *MemoryCollection[T] {
	return &MemoryCollection[T]{
		name:    name,
		byID:    make(map[string]int),
		indexes: make(map[string]map[string]string),
	}
}

func (m *MemoryCollection[T]) Name() string    { return m.name }
func (m *MemoryCollection[T]) Backend() string { return BackendMemory }

func (m *MemoryCollection[T]) Insert(_ context.Context, doc T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(doc)
}

func (m *MemoryCollection[T]) InsertUnique(_ context.Context, doc T, index, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexes[index]
	if idx == nil {
		idx = make(map[string]string)
		m.indexes[index] = idx
	}
	if _, taken := idx[key]; taken {
		return fmt.Errorf("%s %s=%q: %w", m.name, index, key, ErrDuplicate)
	}

	if err := m.insertLocked(doc); err != nil {
		return err
	}
	idx[key] = doc.DocumentID()
	return nil
}

func (m *MemoryCollection[T]) insertLocked(doc T) error {
	id := doc.DocumentID()
	if _, exists := m.byID[id]; exists {
		return fmt.Errorf("%s id %q: %w", m.name, id, ErrDuplicate)
	}
	m.byID[id] = len(m.docs)
	m.docs = append(m.docs, doc)
	return nil
}

func (m *MemoryCollection[T]) FindByID(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i, ok := m.byID[id]; ok {
		return m.docs[i], nil
	}
	var zero T
	return zero, ErrNotFound
}

func (m *MemoryCollection[T]) FindByKey(ctx context.Context, index, key string) (T, error) {
	m.mu.RLock()
	id, ok := m.indexes[index][key]
	m.mu.RUnlock()

	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.FindByID(ctx, id)
}

// List returns a copy sorted newest first; equal timestamps keep the later insert first
func (m *MemoryCollection[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	out := make([]T, len(m.docs))
	for i, doc := range m.docs {
		out[len(m.docs)-1-i] = doc
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out, nil
}

func (m *MemoryCollection[T]) Update(_ context.Context, id string, mutate func(*T) error) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	i, ok := m.byID[id]
	if !ok {
		return zero, ErrNotFound
	}

	updated := m.docs[i]
	if err := mutate(&updated); err != nil {
		return zero, err
	}
	m.docs[i] = updated
	return updated, nil
}

func (m *MemoryCollection[T]) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

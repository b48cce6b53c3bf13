package localstore

import (
	"context"
	"sync"

	"todosync/internal/identity"
	"todosync/internal/service"
)

// Memory is an in-process Store backed by an ordered map.
// It does not survive restarts; use it for tests and ephemeral sessions.
type Memory struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]service.List
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]service.List)}
}

// ReadCollection implements Store.
func (m *Memory) ReadCollection(ctx context.Context) ([]service.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]service.List, 0, len(m.order))
	for _, key := range m.order {
		result = append(result, m.entries[key].Clone())
	}
	return result, nil
}

// WriteCollection implements Store.
func (m *Memory) WriteCollection(ctx context.Context, lists []service.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = m.order[:0]
	m.entries = make(map[string]service.List, len(lists))
	for _, l := range lists {
		key := l.ID.String()
		if _, dup := m.entries[key]; !dup {
			m.order = append(m.order, key)
		}
		m.entries[key] = l.Clone()
	}
	return nil
}

// ReadEntry implements Store.
func (m *Memory) ReadEntry(ctx context.Context, id identity.ID) (service.List, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.entries[id.String()]
	if !ok {
		return service.List{}, false, nil
	}
	return l.Clone(), true, nil
}

// WriteEntry implements Store.
func (m *Memory) WriteEntry(ctx context.Context, id identity.ID, l service.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.String()
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = l.Clone()
	return nil
}

// RemoveEntry implements Store.
func (m *Memory) RemoveEntry(ctx context.Context, id identity.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.String()
	if _, ok := m.entries[key]; !ok {
		return nil
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

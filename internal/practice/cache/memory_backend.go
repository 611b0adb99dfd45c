package cache

import (
	"context"
	"strings"
	"sync"
)

// MemoryBackend keeps entries in a map. There is no background sweep;
// expired entries leave on the next Get of their key.
type MemoryBackend struct {
	data map[string]*Entry
	mu   sync.RWMutex
}

// NewMemoryBackend creates an empty in-process backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]*Entry)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (m *MemoryBackend) Store(_ context.Context, key string, entry *Entry) error {
	cp := *entry
	m.mu.Lock()
	m.data[key] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = make(map[string]*Entry)
	m.mu.Unlock()
	return nil
}

// Size returns the number of stored entries, expired ones included.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

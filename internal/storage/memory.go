package storage

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

type memorySlots struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns process-local slots. Contents are lost on exit.
func NewMemory() Slots {
	return &memorySlots{data: make(map[string][]byte)}
}

func (m *memorySlots) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memorySlots) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *memorySlots) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memorySlots) Ping(context.Context) error {
	return nil
}

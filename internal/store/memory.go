package store

import (
	"context"
	"sync"
)

// Memory is a process-local KV, used by tests and the "memory" backend.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if err := checkKey("memory", "get", key); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// SetMany stores copies of all entries.
func (m *Memory) SetMany(_ context.Context, entries map[string][]byte) error {
	for k := range entries {
		if err := checkKey("memory", "set", k); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

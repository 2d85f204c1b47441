package selection

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. Selections do not survive
// a restart; used for tests and the "memory" backend setting.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = append([]byte(nil), data...)
	return nil
}

// Raw returns the stored bytes for key as a string, "" if absent.
func (m *MemoryBackend) Raw(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.records[key])
}

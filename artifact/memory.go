package artifact

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Object is a stored buffer with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory implements Store in memory. FailWith injects upload failures and
// Delay simulates a slow gateway; both are for tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object

	FailWith error
	Delay    time.Duration
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.FailWith != nil {
		return "", m.FailWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = Object{Data: stored, ContentType: contentType}
	return "memory://" + key, nil
}

// Object returns a stored object by key.
func (m *Memory) Object(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// Len reports how many objects have been stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

package store

import (
	"context"
	"sync"

	"github.com/go-training/account-linker/pkg/core"
)

// MemoryStore implements the core.Store interface using an in-memory map.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Put stores value under key, replacing any previous value.
func (m *MemoryStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return core.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Get returns the value stored under key without consuming it.
// It returns core.ErrNotFound if the key does not exist.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.values[key]
	if !exists {
		return "", core.ErrNotFound
	}

	return value, nil
}

// Take returns the value stored under key and removes it while holding the
// write lock, so concurrent callers observe the value at most once.
func (m *MemoryStore) Take(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value, exists := m.values[key]
	if !exists {
		return "", core.ErrNotFound
	}
	delete(m.values, key)

	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

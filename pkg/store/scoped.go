package store

import (
	"context"

	"github.com/go-training/account-linker/pkg/core"
)

// ScopedStore prefixes every key with a namespace, giving each browser its
// own view of a shared backend.
type ScopedStore struct {
	base   core.Store
	prefix string
}

// Scoped wraps base so that all keys live under namespace.
func Scoped(base core.Store, namespace string) *ScopedStore {
	return &ScopedStore{
		base:   base,
		prefix: namespace + ":",
	}
}

func (s *ScopedStore) key(key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyKey
	}
	return s.prefix + key, nil
}

// Put stores value under the namespaced key.
func (s *ScopedStore) Put(ctx context.Context, key, value string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.base.Put(ctx, k, value)
}

// Get returns the value under the namespaced key.
func (s *ScopedStore) Get(ctx context.Context, key string) (string, error) {
	k, err := s.key(key)
	if err != nil {
		return "", err
	}
	return s.base.Get(ctx, k)
}

// Take reads and deletes the namespaced key.
func (s *ScopedStore) Take(ctx context.Context, key string) (string, error) {
	k, err := s.key(key)
	if err != nil {
		return "", err
	}
	return s.base.Take(ctx, k)
}

// Delete removes the namespaced key.
func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.base.Delete(ctx, k)
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-training/account-linker/pkg/core"
)

// StoreType represents the type of store backend.
type StoreType string

const (
	// StoreTypeMemory keeps flow state in process. Only valid for a single
	// replica: the callback must land on the process that issued the state.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis shares flow state across replicas.
	StoreTypeRedis StoreType = "redis"
)

// Config selects and configures the store backing every device namespace.
type Config struct {
	Type  StoreType
	Redis RedisOptions
}

// Open returns the store described by config and a func that releases it.
// A redis store is pinged first so a bad address fails at startup rather
// than on the first connect.
func Open(ctx context.Context, config Config) (core.Store, func(), error) {
	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryStore(), func() {}, nil
	case StoreTypeRedis:
		rs, err := NewRedisStoreFromOptions(config.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", config.Redis.Addr, err)
		}
		return rs, rs.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// ParseStoreType parses a string into a StoreType.
// Returns StoreTypeMemory for invalid inputs.
func ParseStoreType(s string) StoreType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "redis":
		return StoreTypeRedis
	default:
		return StoreTypeMemory
	}
}

// String returns the string representation of a StoreType.
func (t StoreType) String() string {
	return string(t)
}

package store

import (
	"context"
	"testing"
)

func TestParseStoreType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StoreType
	}{
		{
			name:     "parse memory lowercase",
			input:    "memory",
			expected: StoreTypeMemory,
		},
		{
			name:     "parse memory uppercase",
			input:    "MEMORY",
			expected: StoreTypeMemory,
		},
		{
			name:     "parse redis lowercase",
			input:    "redis",
			expected: StoreTypeRedis,
		},
		{
			name:     "parse redis mixed case with spaces",
			input:    " ReDiS ",
			expected: StoreTypeRedis,
		},
		{
			name:     "invalid input returns memory",
			input:    "invalid",
			expected: StoreTypeMemory,
		},
		{
			name:     "empty string returns memory",
			input:    "",
			expected: StoreTypeMemory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseStoreType(tt.input)
			if result != tt.expected {
				t.Errorf("ParseStoreType(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	for _, typ := range []StoreType{StoreTypeMemory, ""} {
		store, closeStore, err := Open(context.Background(), Config{Type: typ})
		if err != nil {
			t.Fatalf("Open(%q) error = %v, want nil", typ, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Errorf("Open(%q) returned %T, want *MemoryStore", typ, store)
		}
		closeStore()
	}
}

func TestOpen_Redis(t *testing.T) {
	ctx := context.Background()
	addr := setupRedisContainer(ctx, t)

	store, closeStore, err := Open(ctx, Config{Type: StoreTypeRedis, Redis: RedisOptions{Addr: addr}})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeStore()

	if _, ok := store.(*RedisStore); !ok {
		t.Fatalf("Open() returned %T, want *RedisStore", store)
	}
}

func TestOpen_InvalidType(t *testing.T) {
	store, closeStore, err := Open(context.Background(), Config{Type: StoreType("invalid")})
	if err == nil {
		t.Error("Open() with invalid type should return error")
	}
	if store != nil || closeStore != nil {
		t.Error("Open() with invalid type should return nil store and closer")
	}
}

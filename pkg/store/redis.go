package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-training/account-linker/pkg/core"

	"github.com/redis/rueidis"
)

// keyPrefix namespaces every key this service writes.
const keyPrefix = "linker:"

// RedisStore implements the core.Store interface using Redis via rueidis.
// Flow state written before a redirect is visible to whichever process
// handles the redirect back.
type RedisStore struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyTTL expires keys after the given duration. Zero keeps them until
	// they are consumed or overwritten.
	KeyTTL time.Duration
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	clientOpts := rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	store, err := NewRedisStoreFromClientOption(clientOpts)
	if err != nil {
		return nil, err
	}
	store.ttl = opts.KeyTTL
	return store, nil
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Put stores value under key, replacing any previous value.
func (r *RedisStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return core.ErrEmptyKey
	}

	var cmd rueidis.Completed
	if r.ttl > 0 {
		cmd = r.client.B().Set().Key(keyPrefix + key).Value(value).PxMilliseconds(max(r.ttl.Milliseconds(), 1)).Build()
	} else {
		cmd = r.client.B().Set().Key(keyPrefix + key).Value(value).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save key to redis: %w", err)
	}

	return nil
}

// Get retrieves the value stored under key. Reads are not cached: a value
// consumed by Take on another process must not be served from a stale cache.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyKey
	}

	cmd := r.client.B().Get().Key(keyPrefix + key).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", core.ErrNotFound
		}
		return "", fmt.Errorf("failed to get key from redis: %w", err)
	}

	return result, nil
}

// Take reads and deletes key with a single GETDEL, so two callbacks racing
// on the same key cannot both observe the value.
func (r *RedisStore) Take(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyKey
	}

	cmd := r.client.B().Getdel().Key(keyPrefix + key).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", core.ErrNotFound
		}
		return "", fmt.Errorf("failed to take key from redis: %w", err)
	}

	return result, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyKey
	}

	cmd := r.client.B().Del().Key(keyPrefix + key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete key from redis: %w", err)
	}

	return nil
}

// Ping checks the connection to Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}

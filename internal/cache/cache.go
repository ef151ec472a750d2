package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache defines the interface for cache operations
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX sets key only if it does not exist and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// DeleteByPattern deletes all keys matching a glob pattern
	DeleteByPattern(ctx context.Context, pattern string) error
	Close() error
}

// Keys for cached read models. Every mutation invalidates KeyPrefix + "*".
const (
	KeyPrefix  = "inventory:"
	KeyItems   = KeyPrefix + "items"
	KeySales   = KeyPrefix + "sales"
	KeySummary = KeyPrefix + "summary"
)

var ErrCacheMiss = errors.New("cache miss")

func GetJSON(ctx context.Context, cache Cache, key string, dest interface{}) error {
	data, err := cache.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func SetJSON(ctx context.Context, cache Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return cache.Set(ctx, key, data, ttl)
}

// TTL returns a time.Duration from seconds
func TTL(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

const idempotencyPrefix = "idempotency:"

// ResponseStore keeps replayable API responses in a Cache. It satisfies
// middleware.RequestIDStore, so with Redis enabled replay survives restarts
// and is shared between instances.
type ResponseStore struct {
	Cache Cache
}

func (s ResponseStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.Cache.Set(ctx, idempotencyPrefix+key, response, ttl)
}

func (s ResponseStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.Cache.Get(ctx, idempotencyPrefix+key)
}

// Reserve claims key for one in-flight request. It uses SETNX so two
// instances sharing Redis cannot both claim it.
func (s ResponseStore) Reserve(ctx context.Context, key string, marker []byte, ttl time.Duration) (bool, error) {
	return s.Cache.SetNX(ctx, idempotencyPrefix+key, marker, ttl)
}

func (s ResponseStore) Release(ctx context.Context, key string) error {
	return s.Cache.Delete(ctx, idempotencyPrefix+key)
}

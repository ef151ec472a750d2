package cache

import (
	"context"
	"sync"
	"time"
)

// Versioned counts invalidations so a read that started before one cannot
// write its result back afterwards. Share one Versioned between every
// component that reads or invalidates the same keys.
//
// The counter is per process. Instances sharing Redis still rely on the TTL
// to expire a value cached by a slow read on another instance.
type Versioned struct {
	Cache

	mu         sync.Mutex
	generation uint64
}

func NewVersioned(c Cache) *Versioned {
	return &Versioned{Cache: c}
}

// Generation is taken before reading from the source of truth.
func (v *Versioned) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// SetIfCurrent writes value only when no invalidation happened since generation was taken.
func (v *Versioned) SetIfCurrent(ctx context.Context, generation uint64, key string, value interface{}, ttl time.Duration) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.generation != generation {
		return false, nil
	}
	if err := SetJSON(ctx, v.Cache, key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate bumps the generation and deletes every key matching pattern.
func (v *Versioned) Invalidate(ctx context.Context, pattern string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.generation++
	return v.Cache.DeleteByPattern(ctx, pattern)
}

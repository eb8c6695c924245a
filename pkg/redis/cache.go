package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached value exists for a key.
var ErrCacheMiss = errors.New("cache miss")

const defaultCacheJitterMinutes = 5

type cacheStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	CacheKey(kind, id string) string
}

// JSONCache stores values of T as JSON documents under a cache namespace.
// Entries live for the base TTL plus a random number of whole minutes so that
// keys written together do not expire together.
type JSONCache[T any] struct {
	store   cacheStore
	kind    string
	baseTTL time.Duration
	jitter  func() time.Duration
}

// NewJSONCache builds a cache for the given entity kind.
func NewJSONCache[T any](store cacheStore, kind string, baseTTL time.Duration) (*JSONCache[T], error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	if kind == "" {
		return nil, errors.New("cache kind is required")
	}
	if baseTTL <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}
	return &JSONCache[T]{
		store:   store,
		kind:    kind,
		baseTTL: baseTTL,
		jitter: func() time.Duration {
			return time.Duration(rand.Intn(defaultCacheJitterMinutes)) * time.Minute
		},
	}, nil
}

// Get returns the cached value or ErrCacheMiss.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.store.Get(ctx, c.store.CacheKey(c.kind, id))
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("unmarshal %s failed: %w", c.kind, err)
	}
	return &value, nil
}

// Set writes the value with the jittered TTL.
func (c *JSONCache[T]) Set(ctx context.Context, id string, value *T) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", c.kind, err)
	}
	ttl := c.baseTTL + c.jitter()
	if err := c.store.Set(ctx, c.store.CacheKey(c.kind, id), string(payload), ttl); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete evicts the cached value.
func (c *JSONCache[T]) Delete(ctx context.Context, id string) error {
	if err := c.store.Del(ctx, c.store.CacheKey(c.kind, id)); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

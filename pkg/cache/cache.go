// Package cache is the key/value cache used for upstream lookup responses,
// the settings row and catalog listings.
//
// Two drivers exist: "redis" (default) and "memory". When Redis is
// unreachable at boot the memory driver is used so the app keeps serving.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Store is a cache driver. Values are raw bytes; encoding is done here.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Driver() string
}

var RDB *redis.Client
var Ctx = context.Background()

var store Store = NewMemoryStore()

// Connect initialises the configured driver. A failed Redis ping falls back
// to the memory driver and returns the ping error so the caller can log it.
func Connect() error {
	if config.CacheDriver() == "memory" {
		store = NewMemoryStore()
		return nil
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil
		store = NewMemoryStore()
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	store = &redisStore{client: RDB}
	return nil
}

// Use swaps the active store. Tests install a fresh memory store with it.
func Use(s Store) {
	store = s
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	return GetCtx(Ctx, key, dest)
}

// GetCtx is Get with an explicit context.
func GetCtx(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := store.Get(ctx, key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(store.Driver()).Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("cache: decode failed", "key", key, "error", err)
		metrics.CacheMisses.WithLabelValues(store.Driver()).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(store.Driver()).Inc()
	return true
}

// Set stores value under key for the given TTL.
func Set(key string, value interface{}, ttl time.Duration) error {
	return SetCtx(Ctx, key, value, ttl)
}

// SetCtx is Set with an explicit context.
func SetCtx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return store.Set(ctx, key, data, ttl)
}

// Del removes one or more keys.
func Del(keys ...string) error {
	return store.Del(Ctx, keys...)
}

// Forget is an alias for Del (Laravel-style).
func Forget(key string) error {
	return Del(key)
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisStore) Driver() string { return "redis" }

package domain

import (
	"context"
	"time"
)

// Cache stores short-lived upstream answers, such as contract verification
// status, keyed by string. Implementations: process LRU, Redis, or the LRU
// layered over Redis.
type Cache interface {
	// Get returns nil, nil on a miss or an expired entry.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// EnableTwoPhase layers the local LRU over Redis.
	EnableTwoPhase bool

	// VerificationTTL bounds how long a definite verification answer is reused.
	VerificationTTL time.Duration
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
)

// New builds the cache selected by cfg.Type:
//
//	memory          process-local LRU
//	redis           Redis only
//	redis+two-phase LRU in front of Redis (REDIS_TWO_PHASE=true)
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory", "":
		return NewLRUCache(cfg.LocalMaxSize), nil
	case "redis":
		remote, err := NewRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		if !cfg.EnableTwoPhase {
			return remote, nil
		}
		return NewTieredCache(NewLRUCache(cfg.LocalMaxSize), remote, cfg.LocalTTL), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// TieredCache reads through a local LRU to a shared remote cache. Local
// copies live at most localTTL, which bounds how stale a replica can be
// after another replica deletes a key.
type TieredCache struct {
	local    *LRUCache
	remote   domain.Cache
	localTTL time.Duration
}

// NewTieredCache layers local over remote. A zero localTTL selects five minutes.
func NewTieredCache(local *LRUCache, remote domain.Cache, localTTL time.Duration) *TieredCache {
	if localTTL <= 0 {
		localTTL = 5 * time.Minute
	}
	return &TieredCache{local: local, remote: remote, localTTL: localTTL}
}

// Get checks local first and copies remote hits into local.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := c.local.Get(ctx, key); err != nil || val != nil {
		return val, err
	}

	val, err := c.remote.Get(ctx, key)
	if err != nil || val == nil {
		return nil, err
	}
	_ = c.local.Set(ctx, key, val, c.localTTL)
	return val, nil
}

// Set writes through to both layers. The local copy never outlives ttl.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, min(ttl, c.localTTL)); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes key from both layers.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.local.Delete(ctx, key), c.remote.Delete(ctx, key))
}

// Ping reports the remote layer; the local layer cannot fail.
func (c *TieredCache) Ping(ctx context.Context) error {
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("remote cache: %w", err)
	}
	return nil
}

func (c *TieredCache) Close() error {
	return errors.Join(c.local.Close(), c.remote.Close())
}

// Stats reports the local layer.
func (c *TieredCache) Stats() Stats {
	return c.local.Stats()
}

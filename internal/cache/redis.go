package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "variant:"

// RedisVariantCache stores optimized variants as JSON values keyed by the
// deterministic cache key. Entries carry no TTL; stale variants are orphaned
// by the etag component of the key when the source asset changes.
type RedisVariantCache struct {
	rdb    *goredis.Client
	logger zerolog.Logger
}

func NewRedisVariantCache(addr string, logger zerolog.Logger) (*RedisVariantCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info().Str("addr", addr).Msg("redis variant cache connected")
	return &RedisVariantCache{rdb: rdb, logger: logger}, nil
}

func (c *RedisVariantCache) Get(ctx context.Context, cacheKey string) (*domain.OptimizedVariant, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+cacheKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Str("cache_key", cacheKey).Msg("redis get failed")
		return nil, false, apierr.UpstreamIO("cache get", err)
	}

	var v domain.OptimizedVariant
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, apierr.UpstreamIO("cache entry decode", err)
	}
	return &v, true, nil
}

func (c *RedisVariantCache) Put(ctx context.Context, v *domain.OptimizedVariant) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apierr.UpstreamIO("cache entry encode", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+v.CacheKey, raw, 0).Err(); err != nil {
		c.logger.Error().Err(err).Str("cache_key", v.CacheKey).Msg("redis set failed")
		return apierr.UpstreamIO("cache put", err)
	}
	return nil
}

func (c *RedisVariantCache) Close() error {
	return c.rdb.Close()
}

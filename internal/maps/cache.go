package maps

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"predpraznik_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	lookupCacheTTL    = 24 * time.Hour
	lookupCachePrefix = "maps:lookup:"
)

// LookupCache stores address suggestions per normalized query.
type LookupCache interface {
	Get(ctx context.Context, query string) ([]AddressSuggestion, bool)
	Set(ctx context.Context, query string, suggestions []AddressSuggestion)
}

// RedisCache keeps lookups in Redis. Cache errors only cost a round trip to
// Nominatim, so they are logged and otherwise ignored.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache wraps a connected client.
func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: lookupCacheTTL, log: log}
}

func cacheKey(query string) string {
	return lookupCachePrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *RedisCache) Get(ctx context.Context, query string) ([]AddressSuggestion, bool) {
	raw, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("address cache read failed", "error", err)
		}
		return nil, false
	}
	var out []AddressSuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("address cache entry unreadable", "error", err)
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, query string, suggestions []AddressSuggestion) {
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(query), raw, c.ttl).Err(); err != nil {
		c.log.Warn("address cache write failed", "error", err)
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]AddressSuggestion, bool) { return nil, false }
func (noCache) Set(context.Context, string, []AddressSuggestion) {}

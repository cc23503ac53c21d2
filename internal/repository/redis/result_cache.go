package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
)

const defaultKeyPrefix = "screening:result:"

// ResultCache keeps recent screening results keyed by profile fingerprint
type ResultCache struct {
	client redis.UniversalClient
	prefix string
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewResultCache wraps client. An empty prefix uses "screening:result:".
func NewResultCache(client redis.UniversalClient, prefix string) *ResultCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &ResultCache{client: client, prefix: prefix}
}

func (c *ResultCache) key(fingerprint string) string {
	return c.prefix + fingerprint
}

// Get returns the cached result for fingerprint, or nil on a miss
func (c *ResultCache) Get(ctx context.Context, fingerprint string) (*domain.ScreeningResult, error) {
	data, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}

	var result domain.ScreeningResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}

// Set caches result for ttl
func (c *ResultCache) Set(ctx context.Context, fingerprint string, result *domain.ScreeningResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, c.key(fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Invalidate drops every cached result. Called after a watchlist refresh
// since cached verdicts may no longer hold.
func (c *ResultCache) Invalidate(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 500).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan cached results: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete cached results: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

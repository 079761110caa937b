package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trolley-monitor/internal/config"
	"trolley-monitor/internal/domain/alert"
)

// dedupTTL bounds how long the fast-path cache can shadow the alert store.
// A stale entry only costs one extra round trip to the database constraint.
const dedupTTL = 5 * time.Minute

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func dedupKey(trolleyID uuid.UUID, kind alert.Kind) string {
	return fmt.Sprintf("alert:%s:%s", trolleyID, string(kind))
}

// Seen implements the telemetry alert dedup fast path.
func (c *RedisCache) Seen(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) (bool, error) {
	count, err := c.client.Exists(ctx, dedupKey(trolleyID, kind)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (c *RedisCache) Mark(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) error {
	return c.client.Set(ctx, dedupKey(trolleyID, kind), "1", dedupTTL).Err()
}

func (c *RedisCache) Clear(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) error {
	return c.client.Del(ctx, dedupKey(trolleyID, kind)).Err()
}

// SweepLock is a shared lock for the escalation sweep, so that overlapping
// sweeps across processes skip instead of double-penalizing. SET NX EX gives
// the TTL fallback when a holder dies without releasing.
type SweepLock struct {
	cache *RedisCache
	key   string
	ttl   time.Duration
}

func NewSweepLock(cache *RedisCache, ttl time.Duration) *SweepLock {
	return &SweepLock{
		cache: cache,
		key:   "escalator:sweep:lock",
		ttl:   ttl,
	}
}

func (l *SweepLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	acquired, err := l.cache.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("sweep lock acquire failed: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// Only the holder's token releases; an expired lock taken over by
		// another sweep is left alone.
		const script = `
			if redis.call("GET", KEYS[1]) == ARGV[1] then
				return redis.call("DEL", KEYS[1])
			end
			return 0`
		l.cache.client.Eval(context.Background(), script, []string{l.key}, token)
	}

	return release, true, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easeaico/liveroom/internal/usage"
)

// RedisCountersConfig configures the Redis usage counters.
type RedisCountersConfig struct {
	Prefix string        // key prefix, default "usage"
	TTL    time.Duration // lifetime of a day's counters, default 48h
}

// RedisCounters keeps day-scoped usage counters in Redis hashes keyed as
// "{prefix}:{user}:{YYYY-MM-DD}". A new day starts from an empty key, so
// resets need no write.
type RedisCounters struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ usage.Counters = (*RedisCounters)(nil)

// NewRedisCounters returns counters stored in client.
func NewRedisCounters(client redis.UniversalClient, config ...RedisCountersConfig) *RedisCounters {
	cfg := RedisCountersConfig{Prefix: "usage", TTL: 48 * time.Hour}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "usage"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 48 * time.Hour
	}
	return &RedisCounters{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

// NewRedisClient connects to the Redis server at url.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCounters) key(userID int, day string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, userID, day)
}

// incrementScript adds one to a hash field unless it already reached the
// limit. A negative limit means unlimited.
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call("HGET", KEYS[1], ARGV[1]) or "0")
local limit = tonumber(ARGV[2])
if limit >= 0 and current >= limit then
  return 0
end
redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

func (c *RedisCounters) ResetIfStale(ctx context.Context, userID int, day string, now time.Time) (bool, error) {
	return false, nil
}

func (c *RedisCounters) Reset(ctx context.Context, userID int, day string, now time.Time) error {
	if err := c.client.Del(ctx, c.key(userID, day)).Err(); err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

func (c *RedisCounters) Increment(ctx context.Context, userID int, day string, counter usage.Counter, limit int) (bool, error) {
	ok, err := incrementScript.Run(ctx, c.client,
		[]string{c.key(userID, day)},
		string(counter), limit, int(c.ttl.Seconds()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to increment usage: %w", err)
	}
	return ok == 1, nil
}

func (c *RedisCounters) Usage(ctx context.Context, userID int, day string) (usage.Usage, error) {
	fields, err := c.client.HGetAll(ctx, c.key(userID, day)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return usage.Usage{}, fmt.Errorf("failed to read usage: %w", err)
	}
	var u usage.Usage
	if v, ok := fields[string(usage.CounterMessages)]; ok {
		u.Messages, _ = strconv.Atoi(v)
	}
	if v, ok := fields[string(usage.CounterImages)]; ok {
		u.Images, _ = strconv.Atoi(v)
	}
	return u, nil
}

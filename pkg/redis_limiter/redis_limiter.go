// Package redis_limiter implements a cross-process concurrency limiter on
// Redis counters. It guards shared provider quotas when several server
// instances run against the same accounts; a nil client disables it.
package redis_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a Redis-backed concurrency limiter.
type RedisLimiter struct {
	client        *redis.Client
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
}

// NewRedisLimiter creates a limiter. The TTL bounds how long a crashed
// holder can pin a slot.
func NewRedisLimiter(client *redis.Client, maxConcurrent int, keyPrefix string, ttl time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
	}
}

// Acquire takes a slot for key, or fails when the limit is reached.
// Without a Redis client it always succeeds.
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	if rl.client == nil {
		return nil
	}

	redisKey := rl.keyPrefix + key

	// Lua keeps check-and-increment atomic across processes.
	script := redis.NewScript(
		`local current = redis.call('GET', KEYS[1])
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		if current >= tonumber(ARGV[1]) then
			return current + 1
		end

		local newCount = redis.call('INCR', KEYS[1])
		redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
		return newCount`,
	)

	result, err := script.Run(ctx, rl.client, []string{redisKey}, rl.maxConcurrent, int(rl.ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("run acquire script: %w", err)
	}

	newCount := int(result.(int64))
	if newCount > rl.maxConcurrent {
		return fmt.Errorf("concurrency limit reached for %s: %d", key, rl.maxConcurrent)
	}

	return nil
}

// Release frees a slot for key. Best effort; the TTL covers leaks.
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	if rl.client == nil {
		return
	}

	redisKey := rl.keyPrefix + key

	script := redis.NewScript(
		`local count = redis.call('DECR', KEYS[1])
		if tonumber(count) <= 0 then
			redis.call('DEL', KEYS[1])
			return 0
		else
			redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
			return count
		end`,
	)

	_, _ = script.Run(ctx, rl.client, []string{redisKey}, int(rl.ttl.Seconds())).Result()
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter for the current window and starts
// the window expiry on the first hit. It returns the count and remaining TTL in ms.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return { count, ttl }
`)

// RateLimitRepository counts attempts per key in Redis using fixed windows.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository constructs the repository. A nil client disables counting.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Hit records one attempt for key and returns the attempts seen in the current
// window together with the time left before the window resets.
func (r *RateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r == nil || r.client == nil {
		return 0, 0, nil
	}
	vals, err := fixedWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit hit: %w", err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 2 {
		return 0, 0, fmt.Errorf("rate limit hit: unexpected script result %#v", vals)
	}
	return asInt64(arr[0]), time.Duration(asInt64(arr[1])) * time.Millisecond, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

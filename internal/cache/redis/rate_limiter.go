package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

var slidingWindow = redis.NewScript(slidingWindowLua)

// RateLimiter is a sliding-window limiter. Each bucket is a sorted set of
// request timestamps trimmed and counted atomically by a Lua script.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a RateLimiter on c.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying()}
}

func rateLimitKey(bucket string) string {
	return key("ratelimit", bucket)
}

// Allow counts one request against bucket, e.g. "auth:203.0.113.7", and
// reports whether it fits within limit requests per window. A non-positive
// limit allows everything.
func (rl *RateLimiter) Allow(ctx context.Context, bucket string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	window = max(window, time.Millisecond)

	res, err := slidingWindow.Run(ctx, rl.rdb,
		[]string{rateLimitKey(bucket)},
		time.Now().UnixMicro(), window.Microseconds(), limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", bucket, err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("redis: rate limit %s: script returned %d values", bucket, len(res))
	}
	return res[0] == 1, nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

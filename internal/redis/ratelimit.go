package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitResult contains rate limit check result
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Sliding window over a sorted set scored by request time in milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)

local count = redis.call("ZCARD", key)
if count < limit then
	redis.call("ZADD", key, now, now .. "-" .. math.random())
	redis.call("PEXPIRE", key, window_ms)
	return {1, limit - count - 1}
end
return {0, 0}
`)

// CheckRateLimit admits at most limit calls per window for key, e.g.
// "payout-run:seller-1".
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()

	result, err := slidingWindowScript.Run(ctx, c.rdb, []string{c.prefixKey("ratelimit:" + key)},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, err
	}

	return &RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: result[1],
		ResetAt:   now.Add(window),
	}, nil
}

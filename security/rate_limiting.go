package security

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter over Redis, used to throttle
// checkout attempts per buyer or client address.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the key may perform another request in the current
// window. Redis errors fail open so checkout never depends on the limiter.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.redis.Expire(ctx, k, r.window)
	}

	return count <= r.limit, nil
}

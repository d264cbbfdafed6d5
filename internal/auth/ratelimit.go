package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	limitWindow   = time.Minute
	limitAttempts = 10
)

// RedisLimiter throttles signup/login attempts with a fixed window counter
// per key.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

// Allow increments the counter for key and reports whether the caller is
// still within the window's budget.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.rdb.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		l.rdb.Expire(ctx, "ratelimit:"+key, limitWindow)
	}
	return n <= limitAttempts, nil
}

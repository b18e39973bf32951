package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Rule caps the number of requests per key within one window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// PerMinute returns a one-minute rule allowing n requests.
func PerMinute(n int) Rule {
	return Rule{Limit: n, Window: time.Minute}
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (bool, error)
	Remaining(ctx context.Context, key string, rule Rule) (int, error)
}

// FixedWindowLimiter counts requests in Redis buckets aligned to the window.
// Every replica sharing the Redis instance sees the same counters.
type FixedWindowLimiter struct {
	redis    *redis.Client
	log      *zap.Logger
	failOpen bool
}

// NewFixedWindowLimiter with failOpen set allows requests while Redis is unreachable.
func NewFixedWindowLimiter(client *redis.Client, log *zap.Logger, failOpen bool) *FixedWindowLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &FixedWindowLimiter{redis: client, log: log, failOpen: failOpen}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, rule Rule) (bool, error) {
	if rule.Limit <= 0 {
		return true, nil
	}
	bucket := bucketKey(key, time.Now(), rule.Window)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, rule.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.log.Warn("rate limit check failed, allowing request", zap.String("key", key), zap.Error(err))
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	if incr.Val() > int64(rule.Limit) {
		l.log.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", incr.Val()),
			zap.Int("limit", rule.Limit),
		)
		return false, nil
	}
	return true, nil
}

func (l *FixedWindowLimiter) Remaining(ctx context.Context, key string, rule Rule) (int, error) {
	count, err := l.redis.Get(ctx, bucketKey(key, time.Now(), rule.Window)).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rate limit counter: %w", err)
	}
	return max(rule.Limit-count, 0), nil
}

// bucketKey the counter for key in the window containing now
func bucketKey(key string, now time.Time, window time.Duration) string {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/secs)
}

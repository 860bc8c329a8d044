package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"go-buildmart/logger"
	"go-buildmart/utils"
)

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter shares counters between instances.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "buildmart:rate:" + key
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= l.max, nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter(max int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{max: max, window: w, buckets: map[string]*window{}, now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		if len(l.buckets) > 10000 {
			l.sweep(now)
		}
		b = &window{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// RateLimit answers 429 once a client IP exceeds the limiter. Limiter
// errors let the request through.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limiter", "error", err)
			}
			if !ok {
				utils.JSON(w, http.StatusTooManyRequests, utils.Envelope{Success: false, Message: "Too many requests, please try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

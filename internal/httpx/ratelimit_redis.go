package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per caller in fixed windows stored in Redis, so
// every replica of the service shares one budget.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int64
	window time.Duration
	prefix string
}

// INCR then PEXPIRE on the first hit; the key dies with its window.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix}
}

// Middleware rejects callers over the window budget with 429. When Redis is unreachable
// the request passes if failOpen is set and gets 503 otherwise.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool, key KeyFunc) Middleware {
	if key == nil {
		key = RemoteKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := key(r)
			n, err := rl.hit(r.Context(), client)
			switch {
			case err != nil:
				logger.Warn("redis rate limiter unavailable",
					slog.Any("err", err),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.Bool("fail_open", failOpen),
				)
				if !failOpen {
					http.Error(w, "rate limiter unavailable", http.StatusServiceUnavailable)
					return
				}
			case n > rl.limit:
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RedisRateLimiter) hit(ctx context.Context, client string) (int64, error) {
	return fixedWindow.Run(ctx, rl.rdb, []string{rl.prefix + ":" + client}, rl.window.Milliseconds()).Int64()
}

// RedisReadyCheck pings Redis for /readyz.
func RedisReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

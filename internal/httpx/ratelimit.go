package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const staleClientAfter = 3 * time.Minute

// RateLimiter is a per-client token bucket kept in process memory.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	r         rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, c := range rl.clients {
			if now.Sub(c.seen) > staleClientAfter {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.clients[key] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// Middleware answers 429 once the caller identified by key runs out of tokens.
// A nil key falls back to RemoteKey.
func (rl *RateLimiter) Middleware(key KeyFunc) Middleware {
	if key == nil {
		key = RemoteKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(key(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// ClientKeyFunc returns ForwardedKey behind a trusted proxy and RemoteKey otherwise.
func ClientKeyFunc(trustForwarded bool) KeyFunc {
	if trustForwarded {
		return ForwardedKey
	}
	return RemoteKey
}

// RemoteKey is the host part of the connection's remote address.
func RemoteKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// ForwardedKey uses the last X-Forwarded-For hop, the one appended by the proxy
// in front of us. Earlier hops come from the client and are ignored.
func ForwardedKey(r *http.Request) string {
	values := r.Header.Values("X-Forwarded-For")
	if len(values) == 0 {
		return RemoteKey(r)
	}
	hops := strings.Split(values[len(values)-1], ",")
	if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
		return last
	}
	return RemoteKey(r)
}

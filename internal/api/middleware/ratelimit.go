package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// RateCounter counts hits within a fixed window. Backed by Redis in
// production so limits hold across API replicas.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter enforces per-client fixed-window limits. Each scope gets its
// own counter namespace so the upload limit can be tighter than the general
// one.
type RateLimiter struct {
	counter RateCounter
	window  time.Duration
}

func NewRateLimiter(counter RateCounter) *RateLimiter {
	return &RateLimiter{counter: counter, window: time.Minute}
}

// Limit returns middleware enforcing at most limit requests per window for
// the given scope, keyed by client IP.
func (rl *RateLimiter) Limit(scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := "ratelimit:" + scope + ":" + clientIP(r)
			n, err := rl.counter.Hit(r.Context(), key, rl.window)
			if err != nil {
				// fail open: a degraded Redis must not take the API down
				slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(limit) - n
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// RealIP middleware rewrites RemoteAddr from X-Forwarded-For upstream
	host := r.RemoteAddr
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return host[:i]
		}
	}
	return host
}

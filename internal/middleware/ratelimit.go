package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Niiaks/Ledgerly/internal/redis"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error)
}

// RateLimit admits limit requests per window for each key returned by keyFn.
// Requests with an empty key pass through. If the limiter itself fails the
// request is let through and the failure logged.
func RateLimit(limiter RateLimiter, name string, limit int64, window time.Duration, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.CheckRateLimit(r.Context(), name+":"+key, limit, window)
			if err != nil {
				GetLogger(r.Context()).Error().Err(err).Str("limiter", name).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(res.ResetAt).Seconds())+1))
				WriteError(w, r, redis.ErrRateLimitExceeded, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

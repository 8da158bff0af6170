package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/verdict/pkg/handlers"
)

// ErrRateLimited is returned to clients that exceed the configured request rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit returns middleware enforcing a token bucket over all requests.
// Rejected requests receive 429 with a Retry-After hint. Passes through when disabled.
func RateLimit(cfg *RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	retryAfter := strconv.Itoa(max(int(1/cfg.RequestsPerSecond), 1))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				handlers.RespondCode(w, logger, http.StatusTooManyRequests, http.StatusTooManyRequests, ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// Throttle rejects requests beyond the configured rate with 429. One
// token bucket guards the whole matchmaking API; matchmaking traffic is
// light and the limiter exists to absorb misbehaving client retry loops.
func Throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.Warn("request throttled", "path", r.URL.Path, "sender_ip", r.RemoteAddr)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"time"
)

// Observer records completed request durations.
type Observer interface {
	ObserveRequest(method string, status int, d time.Duration)
}

// Instrument returns middleware that reports each request's duration and status to obs.
func Instrument(obs Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			obs.ObserveRequest(r.Method, sw.status, time.Since(start))
		})
	}
}

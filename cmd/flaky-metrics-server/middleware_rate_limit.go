package main

import (
	"math"
	"net/http"
	"strconv"
)

// rateLimitMiddleware enforces a global token bucket. Metrics scrapes, health
// probes and the stats stream are never limited.
func (s *server) rateLimitMiddleware(next http.Handler) http.Handler {
	retryAfter := "1"
	if limit := float64(s.limiter.Limit()); limit > 0 && limit < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / limit)))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metrics", "/health", "/ready", "/ws/stats":
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", retryAfter)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:   "Too Many Requests",
				Message: "Rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

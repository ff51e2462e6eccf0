package main

import (
	"log"
	"net/http"
	"time"
)

// loggingMiddleware logs request arrival with the running total and the
// completion line with status and duration.
func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.LogRequests {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		if s.metrics.Enabled() {
			log.Printf("Request received. Total requests: %.0f", s.metrics.TotalRequests())
		}
		log.Printf("%s %s %s", r.RemoteAddr, r.Method, r.URL.Path)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		log.Printf("%s %s %s - %d %v", r.RemoteAddr, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

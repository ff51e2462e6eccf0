package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes and middleware for the server.
// Instrumentation and logging wrap the router itself, so they also see the
// requests mux answers without matching a route (path-cleaning redirects).
// Unmatched paths and methods fall through to the catch-all route.
func (s *server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.Use(s.recoverMiddleware)
	router.Use(s.corsMiddleware)
	router.Use(s.requestIDMiddleware)
	if s.limiter != nil {
		router.Use(s.rateLimitMiddleware)
	}

	router.HandleFunc("/health", s.healthHandler).Methods("GET", "HEAD")
	router.HandleFunc("/ready", s.readyHandler).Methods("GET", "HEAD")
	router.HandleFunc("/info", s.infoHandler).Methods("GET", "HEAD")
	router.HandleFunc("/ws/stats", s.statsStreamHandler).Methods("GET")
	router.Handle("/metrics", s.metricsHandler()).Methods("GET", "HEAD")

	for _, rt := range s.routes {
		router.HandleFunc(rt.Path, s.routeHandler(rt)).Methods("GET", "HEAD")
	}

	router.PathPrefix("/").HandlerFunc(s.notFoundHandler)

	// Instrumentation is outermost: it counts first and observes last.
	return s.metrics.Middleware(s.loggingMiddleware(router))
}

package main

import (
	"errors"
	"log"
	"net/http"
)

var errSimulatedFailure = errors.New("Random error occurred")

// serve runs a toy route. A simulated failure is decided before any delay, so
// failing calls return immediately.
func (s *server) serve(rt Route) (messageResponse, error) {
	if s.faults.fail(rt.FailureRate) {
		return messageResponse{}, errSimulatedFailure
	}
	if rt.Delay > 0 {
		s.sleep(rt.Delay)
	}
	return messageResponse{Message: rt.Message}, nil
}

func (s *server) routeHandler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.serve(rt)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Internal Server Error",
				Message: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("404 error for route: %s", r.URL.RequestURI())
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   "Not Found",
		Message: "The requested resource does not exist.",
	})
}

// metricsHandler logs scrape access and delegates to the instrumentation.
func (s *server) metricsHandler() http.Handler {
	h := s.metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Metrics endpoint accessed")
		if s.cfg.LogMetrics && s.metrics.Enabled() {
			if text, _, err := s.metrics.Render(); err == nil {
				log.Printf("Metrics generated:\n%s", text)
			}
		}
		h.ServeHTTP(w, r)
	})
}

package main

import (
	"net/http"
	"runtime"
	"time"
)

// Health check handlers
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(s.startTime).String(),
	})
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type routeInfo struct {
	Path        string  `json:"path"`
	Message     string  `json:"message"`
	FailureRate float64 `json:"failure_rate"`
	Delay       string  `json:"delay"`
}

// Server info handler
func (s *server) infoHandler(w http.ResponseWriter, r *http.Request) {
	routes := make([]routeInfo, 0, len(s.routes))
	for _, rt := range s.routes {
		routes = append(routes, routeInfo{
			Path:        rt.Path,
			Message:     rt.Message,
			FailureRate: rt.FailureRate,
			Delay:       rt.Delay.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": r.Header.Get("X-Request-ID"),
		"routes":     routes,
		"server": map[string]interface{}{
			"hostname":        s.cfg.Hostname,
			"go_version":      runtime.Version(),
			"platform":        runtime.GOOS + "/" + runtime.GOARCH,
			"start_time":      s.startTime,
			"uptime":          time.Since(s.startTime).String(),
			"metrics_enabled": s.metrics.Enabled(),
			"total_requests":  s.metrics.TotalRequests(),
		},
	})
}

package main

import (
	"log"
	"net/http"
	"time"
)

type statsSnapshot struct {
	TotalRequests  float64   `json:"total_requests"`
	MetricsEnabled bool      `json:"metrics_enabled"`
	Uptime         string    `json:"uptime"`
	Timestamp      time.Time `json:"timestamp"`
}

func (s *server) snapshot() statsSnapshot {
	return statsSnapshot{
		TotalRequests:  s.metrics.TotalRequests(),
		MetricsEnabled: s.metrics.Enabled(),
		Uptime:         time.Since(s.startTime).String(),
		Timestamp:      time.Now(),
	}
}

// statsStreamHandler pushes a stats snapshot over a websocket every
// StatsInterval until the client goes away.
func (s *server) statsStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("Stats stream connected: %s", r.RemoteAddr)

	// Reading is required to notice close frames from the peer.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.cfg.StatsInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			log.Printf("Stats stream write error for %s: %v", r.RemoteAddr, err)
			return
		}
		select {
		case <-closed:
			log.Printf("Stats stream closed by client %s", r.RemoteAddr)
			return
		case <-ticker.C:
		}
	}
}

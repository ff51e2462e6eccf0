package main

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// initializeServer resolves routes and instrumentation for cfg. reg is the
// registry the server owns for its lifetime.
func initializeServer(cfg Config, reg *prometheus.Registry) *server {
	base := defaultRoutes(cfg)
	routes, err := loadRoutes(cfg.RoutesFile, base, cfg.FailureRate)
	if err != nil {
		log.Printf("Failed to load routes from %s, using defaults: %v", cfg.RoutesFile, err)
		routes = base
	}

	inst := newInstrumentation(cfg.MetricsEnabled, reg)
	return newServer(cfg, routes, inst)
}

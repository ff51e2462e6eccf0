package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func printBanner(cfg Config, routes []Route) {
	scheme := "http"
	if cfg.EnableTLS {
		scheme = "https"
	}
	base := scheme + "://localhost:" + cfg.Port
	log.Printf("Server running on %s", base)
	log.Println("Available routes:")
	for _, rt := range routes {
		log.Printf("  - %s%s", base, rt.Path)
	}
	log.Printf("  - %s/metrics", base)
}

func main() {
	undo, err := maxprocs.Set(maxprocs.Logger(log.Printf))
	defer undo()
	if err != nil {
		log.Printf("Failed to set GOMAXPROCS: %v", err)
	}

	cfg := loadConfigFromEnv()
	srv := initializeServer(cfg, prometheus.NewRegistry())

	// Wrap the router with h2c to support HTTP/2 over cleartext
	handler := h2c.NewHandler(srv.setupRoutes(), &http2.Server{})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30*time.Second + srv.maxDelay(),
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner(cfg, srv.routes)

	errCh := make(chan error, 1)
	go func() { errCh <- startServer(httpServer, cfg) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}
}

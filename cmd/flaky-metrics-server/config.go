package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration
type Config struct {
	Port           string
	MetricsEnabled bool
	FailureRate    float64
	SlowDelay      time.Duration
	RoutesFile     string
	EnableCORS     bool
	LogRequests    bool
	LogMetrics     bool
	RateLimitRPS   float64
	RateLimitBurst int
	StatsInterval  time.Duration
	EnableTLS      bool
	CertFile       string
	KeyFile        string
	Hostname       string
}

// loadConfigFromEnv builds a Config from environment variables.
func loadConfigFromEnv() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8000"),
		MetricsEnabled: getEnv("METRICS_ENABLED", "true") == "true",
		FailureRate:    clampRate(parseFloat64(getEnv("FAILURE_RATE", "0.2"))),
		SlowDelay:      parseDuration(getEnv("SLOW_DELAY", "5s"), 5*time.Second),
		RoutesFile:     getEnv("ROUTES_FILE", "routes.yaml"),
		EnableCORS:     getEnv("ENABLE_CORS", "true") == "true",
		LogRequests:    getEnv("LOG_REQUESTS", "true") == "true",
		LogMetrics:     getEnv("LOG_METRICS", "false") == "true",
		RateLimitRPS:   parseFloat64(getEnv("RATE_LIMIT_RPS", "0")),
		RateLimitBurst: int(parseInt64(getEnv("RATE_LIMIT_BURST", "0"))),
		StatsInterval:  parseDuration(getEnv("STATS_INTERVAL", "1s"), time.Second),
		EnableTLS:      getEnv("ENABLE_TLS", "false") == "true",
		CertFile:       getEnv("CERT_FILE", "server.crt"),
		KeyFile:        getEnv("KEY_FILE", "server.key"),
	}
	if hostname, _ := os.Hostname(); hostname != "" {
		cfg.Hostname = hostname
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return 0
}

func parseFloat64(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}

// parseDuration returns fallback for unparsable or non-positive values.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}

package main

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// newTestServer builds a server with a fresh registry. Defaults never fail and
// use a short slow delay; opts adjust the config before routes are derived.
func newTestServer(t *testing.T, opts ...func(*Config)) (*server, *prometheus.Registry) {
	t.Helper()
	cfg := Config{
		Port:           "8000",
		MetricsEnabled: true,
		FailureRate:    0,
		SlowDelay:      20 * time.Millisecond,
		EnableCORS:     true,
		LogRequests:    false,
		StatsInterval:  10 * time.Millisecond,
		Hostname:       "test-host",
	}
	for _, o := range opts {
		o(&cfg)
	}
	reg := prometheus.NewRegistry()
	return newServer(cfg, defaultRoutes(cfg), newInstrumentation(cfg.MetricsEnabled, reg)), reg
}

func liveMetrics(t *testing.T, s *server) *Metrics {
	t.Helper()
	m, ok := s.metrics.(*Metrics)
	if !ok {
		t.Fatalf("expected live metrics, got %T", s.metrics)
	}
	return m
}

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// histogramFor returns the sample count and sum recorded for route.
func histogramFor(t *testing.T, m *Metrics, route string) (uint64, float64) {
	t.Helper()
	var pb dto.Metric
	if err := m.requestDuration.WithLabelValues(route).(prometheus.Metric).Write(&pb); err != nil {
		t.Fatalf("read histogram: %v", err)
	}
	return pb.GetHistogram().GetSampleCount(), pb.GetHistogram().GetSampleSum()
}

// withTestFaultSeed swaps in a deterministic fault injector for the duration of fn.
func withTestFaultSeed(s *server, seed int64, fn func()) {
	old := s.faults
	s.faults = newFaultInjector(seed)
	defer func() { s.faults = old }()
	fn()
}

// captureLog redirects the standard logger while fn runs.
func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)
	fn()
	return buf.String()
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMergeRoutesOverridesAndExtends(t *testing.T) {
	cfg := Config{FailureRate: 0.2, SlowDelay: 5 * time.Second}
	yamlContent := `
routes:
  - path: /slow
    delay: 250ms
    failure_rate: 0
  - path: /flaky
    message: "sometimes"
    failure_rate: 0.9
`
	routes, err := mergeRoutes([]byte(yamlContent), defaultRoutes(cfg), cfg.FailureRate)
	if err != nil {
		t.Fatalf("mergeRoutes: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4", len(routes))
	}
	slow := routes[2]
	if slow.Path != "/slow" || slow.Delay != 250*time.Millisecond || slow.FailureRate != 0 {
		t.Errorf("unexpected /slow %+v", slow)
	}
	if slow.Message != "Heavy task completed. This was the slow route." {
		t.Errorf("message should be kept, got %q", slow.Message)
	}
	flaky := routes[3]
	if flaky.Path != "/flaky" || flaky.Message != "sometimes" || flaky.FailureRate != 0.9 || flaky.Delay != 0 {
		t.Errorf("unexpected /flaky %+v", flaky)
	}
	if routes[0].FailureRate != 0.2 {
		t.Errorf("untouched route changed: %+v", routes[0])
	}
}

func TestMergeRoutesRejectsInvalid(t *testing.T) {
	base := defaultRoutes(Config{FailureRate: 0.2})
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"relative path", "routes:\n  - path: fast\n", "must start with /"},
		{"reserved path", "routes:\n  - path: /metrics\n", "reserved"},
		{"rate too high", "routes:\n  - path: /fast\n    failure_rate: 2\n", "out of range"},
		{"negative delay", "routes:\n  - path: /fast\n    delay: -1s\n", "negative delay"},
		{"bad yaml", "routes: [", "parse routes file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := mergeRoutes([]byte(tt.content), base, 0.2)
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Fatalf("err = %v, want containing %q", err, tt.errPart)
			}
			if len(routes) != len(base) {
				t.Errorf("base routes should be returned on error")
			}
		})
	}
}

func TestLoadRoutesFromFile(t *testing.T) {
	base := defaultRoutes(Config{FailureRate: 0.2, SlowDelay: time.Second})

	routes, err := loadRoutes(filepath.Join(t.TempDir(), "missing.yaml"), base, 0.2)
	if err != nil || len(routes) != len(base) {
		t.Fatalf("missing file: routes=%d err=%v", len(routes), err)
	}

	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  - path: /fast\n    message: quick\n"), 0644); err != nil {
		t.Fatal(err)
	}
	routes, err = loadRoutes(path, base, 0.2)
	if err != nil {
		t.Fatalf("loadRoutes: %v", err)
	}
	if routes[1].Message != "quick" {
		t.Errorf("override not applied: %+v", routes[1])
	}
	if base[1].Message == "quick" {
		t.Errorf("base slice was modified")
	}
}

func TestInitializeServerUsesRoutesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  - path: /extra\n    message: extra\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Config{MetricsEnabled: true, RoutesFile: path, SlowDelay: time.Millisecond}
	s := initializeServer(cfg, prometheus.NewRegistry())
	rr := doRequest(t, s.setupRoutes(), "GET", "/extra")
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), `"extra"`) {
		t.Errorf("extra route: %d %s", rr.Code, rr.Body.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("routes:\n  - path: /health\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.RoutesFile = bad
	s = initializeServer(cfg, prometheus.NewRegistry())
	if len(s.routes) != 3 {
		t.Errorf("invalid routes file should fall back to defaults, got %d routes", len(s.routes))
	}
}

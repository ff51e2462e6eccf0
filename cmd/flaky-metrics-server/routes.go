package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Route describes one toy endpoint: the message it answers with, how often it
// fails and how long it stalls before answering.
type Route struct {
	Path        string
	Message     string
	FailureRate float64
	Delay       time.Duration
}

// reservedPaths are served by the server itself and cannot be redefined.
var reservedPaths = map[string]bool{
	"/metrics":  true,
	"/health":   true,
	"/ready":    true,
	"/info":     true,
	"/ws/stats": true,
}

func defaultRoutes(cfg Config) []Route {
	return []Route{
		{Path: "/", Message: "Welcome to the server. Use /fast or /slow routes.", FailureRate: cfg.FailureRate},
		{Path: "/fast", Message: "Hello! This is the fast route.", FailureRate: cfg.FailureRate},
		{Path: "/slow", Message: "Heavy task completed. This was the slow route.", FailureRate: cfg.FailureRate, Delay: cfg.SlowDelay},
	}
}

type routeOverride struct {
	Path        string         `yaml:"path"`
	Message     *string        `yaml:"message"`
	FailureRate *float64       `yaml:"failure_rate"`
	Delay       *time.Duration `yaml:"delay"`
}

type routesFile struct {
	Routes []routeOverride `yaml:"routes"`
}

// loadRoutes merges the YAML routes file at path over base. A missing file
// leaves base untouched.
func loadRoutes(path string, base []Route, defaultRate float64) ([]Route, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("read routes file: %w", err)
	}
	return mergeRoutes(data, base, defaultRate)
}

func mergeRoutes(data []byte, base []Route, defaultRate float64) ([]Route, error) {
	var rf routesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return base, fmt.Errorf("parse routes file: %w", err)
	}

	routes := append([]Route(nil), base...)
	index := make(map[string]int, len(routes))
	for i, rt := range routes {
		index[rt.Path] = i
	}

	for _, o := range rf.Routes {
		if !strings.HasPrefix(o.Path, "/") {
			return base, fmt.Errorf("route %q: path must start with /", o.Path)
		}
		if reservedPaths[o.Path] {
			return base, fmt.Errorf("route %q: path is reserved", o.Path)
		}
		i, ok := index[o.Path]
		if !ok {
			routes = append(routes, Route{Path: o.Path, FailureRate: defaultRate})
			i = len(routes) - 1
			index[o.Path] = i
		}
		rt := &routes[i]
		if o.Message != nil {
			rt.Message = *o.Message
		}
		if o.FailureRate != nil {
			if *o.FailureRate < 0 || *o.FailureRate > 1 {
				return base, fmt.Errorf("route %q: failure_rate %v out of range [0,1]", o.Path, *o.FailureRate)
			}
			rt.FailureRate = *o.FailureRate
		}
		if o.Delay != nil {
			if *o.Delay < 0 {
				return base, fmt.Errorf("route %q: negative delay %v", o.Path, *o.Delay)
			}
			rt.Delay = *o.Delay
		}
	}
	return routes, nil
}

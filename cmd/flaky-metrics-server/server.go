package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// server carries everything a request needs. Nothing is shared through
// package state, so tests build one per case.
type server struct {
	cfg     Config
	routes  []Route
	metrics instrumentation
	faults  *faultInjector
	ids     *requestIDGenerator
	limiter *rate.Limiter

	// sleep stalls the calling goroutine for the route delay.
	sleep func(time.Duration)

	upgrader  websocket.Upgrader
	startTime time.Time
}

func newServer(cfg Config, routes []Route, inst instrumentation) *server {
	if inst == nil {
		inst = noopInstrumentation{}
	}
	s := &server{
		cfg:     cfg,
		routes:  routes,
		metrics: inst,
		faults:  newFaultInjector(time.Now().UnixNano()),
		ids:     newRequestIDGenerator(),
		sleep:   time.Sleep,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	return s
}

// maxDelay is the longest configured route delay.
func (s *server) maxDelay() time.Duration {
	var d time.Duration
	for _, rt := range s.routes {
		if rt.Delay > d {
			d = rt.Delay
		}
	}
	return d
}

// faultInjector decides whether a call fails. math/rand.Rand is not safe for
// concurrent use, hence the mutex.
type faultInjector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newFaultInjector(seed int64) *faultInjector {
	return &faultInjector{rng: rand.New(rand.NewSource(seed))}
}

// fail reports true with probability rate.
func (f *faultInjector) fail(rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < rate
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

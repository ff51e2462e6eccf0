package main

import (
	"crypto/rand"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// requestIDGenerator hands out time-ordered ULIDs.
type requestIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newRequestIDGenerator() *requestIDGenerator {
	return &requestIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *requestIDGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// requestIDMiddleware ensures X-Request-ID is present and echoed back.
func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = s.ids.next()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

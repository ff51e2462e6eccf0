package main

import (
	"log"
	"net/http"
)

// recoverMiddleware turns a handler panic into a 500 JSON response so the
// process keeps serving and the request is still observed upstream. A
// response already committed before the panic is left as is.
func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Printf("Recovered from panic in %s %s: %v", r.Method, r.URL.Path, rec)
			if rw.written {
				return
			}
			writeJSON(rw, http.StatusInternalServerError, errorResponse{
				Error:   "Internal Server Error",
				Message: "Unexpected server error",
			})
		}()
		next.ServeHTTP(rw, r)
	})
}

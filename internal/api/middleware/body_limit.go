package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultMaxBodyBytes caps ordinary request bodies (64KB).
	DefaultMaxBodyBytes = 64 * 1024
	// DefaultHistoryMaxBodyBytes caps history saves, which carry a full
	// serialized graph (8MB).
	DefaultHistoryMaxBodyBytes = 8 * 1024 * 1024
)

// MaxBodySize returns middleware that limits request body size. History
// saves get historyMax since a positioned graph for a large namespace can
// run to megabytes; everything else gets standardMax. GET and HEAD pass
// through untouched.
func MaxBodySize(standardMax, historyMax int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			max := standardMax
			if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/history") {
				max = historyMax
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

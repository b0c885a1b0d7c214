package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyAuth guards handlers behind a shared secret. The key is accepted in
// the X-API-Key header or as a bearer token. An empty configured key
// disables the check.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					presented = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				respondError(w, r, http.StatusUnauthorized, "unauthorized", "valid API key required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimit caps request body size; oversized bodies fail on read
// with http.MaxBytesReader semantics.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

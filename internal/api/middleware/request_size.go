package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize caps event create/update payloads.
	DefaultMaxBodySize int64 = 1 << 20 // 1MB

	// AuthMaxBodySize caps register and login payloads.
	AuthMaxBodySize int64 = 16 << 10 // 16KB
)

// RequestSize limits the size of incoming request bodies.
//
// It wraps the request body with http.MaxBytesReader to enforce the limit.
// Handlers decoding an oversized body see *http.MaxBytesError.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

func AuthRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AuthMaxBodySize)
}

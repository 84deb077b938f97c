package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func readingHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name     string
		limit    int64
		bodySize int
		want     int
	}{
		{name: "under limit", limit: 1024, bodySize: 512, want: http.StatusOK},
		{name: "exactly limit", limit: 1024, bodySize: 1024, want: http.StatusOK},
		{name: "over limit", limit: 1024, bodySize: 1025, want: http.StatusRequestEntityTooLarge},
		{name: "empty body", limit: 1024, bodySize: 0, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestSize(tt.limit)(readingHandler(t))
			req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(make([]byte, tt.bodySize)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthRequestSize(t *testing.T) {
	handler := AuthRequestSize()(readingHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(make([]byte, AuthMaxBodySize+1)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte(`{"email":"a@b.c"}`)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRequestSize_Limit(t *testing.T) {
	handler := PublicRequestSize()(readingHandler(t))

	req := httptest.NewRequest(http.MethodPut, "/api/events/x", bytes.NewReader(make([]byte, DefaultMaxBodySize+1)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

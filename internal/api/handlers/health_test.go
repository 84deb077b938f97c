package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		wantCode   int
		wantStatus string
	}{
		{name: "store up", store: pingerFunc(func(context.Context) error { return nil }), wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "store down", store: pingerFunc(func(context.Context) error { return errors.New("refused") }), wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
		{name: "no store", store: nil, wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store, "1.0.0", "abc")
			rec := httptest.NewRecorder()
			checker.Readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tt.wantCode, rec.Code)
			var body HealthCheck
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.wantStatus, body.Status)
			require.Equal(t, "1.0.0", body.Version)
			require.Contains(t, body.Checks, "store")
		})
	}
}

func TestReadyz_ShuttingDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewHealthChecker(pingerFunc(func(context.Context) error { return nil }), "1.0.0", "abc")
	rec := httptest.NewRecorder()
	checker.Readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"shutting_down"}`, rec.Body.String())
}

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Test that Init doesn't panic
	Init("v1.0.0", "abc123", "2026-01-30", "memory")

	// Verify app_info metric exists
	if testutil.CollectAndCount(AppInfo) == 0 {
		t.Error("AppInfo metric should be registered")
	}

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("v1.0.0", "abc123", "2026-01-30", "memory")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	// Create a test handler
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Wrap with metrics middleware
	wrapped := HTTPMiddleware(handler)

	// Create test request
	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	// Execute request
	wrapped.ServeHTTP(rec, req)

	// Verify response
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	// Verify metrics were recorded
	if testutil.CollectAndCount(HTTPRequestsTotal) == 0 {
		t.Error("HTTPRequestsTotal should have recorded at least one request")
	}

	if testutil.CollectAndCount(HTTPRequestDuration) == 0 {
		t.Error("HTTPRequestDuration should have recorded at least one request")
	}
}

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Not Found", http.StatusNotFound},
		{"Internal Server Error", http.StatusInternalServerError},
		{"Unauthorized", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := HTTPMiddleware(handler)
			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, rec.Code)
			}
		})
	}
}

func TestDBCollector(t *testing.T) {
	// Without a pool the collector samples nothing and returns once ctx ends.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDBCollector(nil).Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after cancel")
	}
}

func TestRecordQuery(t *testing.T) {
	start := time.Now()
	RecordQuery("test_select", start, nil)
	if testutil.CollectAndCount(DBQueryDuration) == 0 {
		t.Error("DBQueryDuration should have recorded at least one query")
	}

	RecordQuery("test_failed", start, context.Canceled)
	if got := testutil.ToFloat64(DBErrors.WithLabelValues("test_failed", "canceled")); got != 1 {
		t.Errorf("canceled errors = %v, want 1", got)
	}
}

func TestClassifyDBError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{pgx.ErrNoRows, ""},
		{fmt.Errorf("find: %w", context.DeadlineExceeded), "timeout"},
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "40001"}, "serialization"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{errors.New("boom"), "query_error"},
	}
	for _, tt := range tests {
		if got := classifyDBError(tt.err); got != tt.want {
			t.Errorf("classifyDBError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStatusRecorder(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(http.ResponseWriter)
		wantStatus int
		wantSize   int
	}{
		{"implicit 200", func(w http.ResponseWriter) { _, _ = w.Write([]byte("Hello, World!")) }, http.StatusOK, 13},
		{"explicit status", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("{}"))
		}, http.StatusCreated, 2},
		{"no body", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }, http.StatusNoContent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
			tt.handler(rec)
			if rec.status != tt.wantStatus || rec.size != tt.wantSize {
				t.Errorf("got status %d size %d, want %d %d", rec.status, rec.size, tt.wantStatus, tt.wantSize)
			}
		})
	}
}

func TestRSVPOperationsCounter(t *testing.T) {
	before := testutil.ToFloat64(RSVPOperations.WithLabelValues("add", "full"))
	RSVPOperations.WithLabelValues("add", "full").Inc()
	after := testutil.ToFloat64(RSVPOperations.WithLabelValues("add", "full"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

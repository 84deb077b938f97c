package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var ctxID string
	handler := CorrelationID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		LoggerFromContext(r.Context()).Info().Msg("inside")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	header := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(header)
	require.NoError(t, err)
	require.Equal(t, header, ctxID)
	require.Contains(t, buf.String(), `"request_id":"`+header+`"`)
}

func TestCorrelationID_ReusesValidHeader(t *testing.T) {
	handler := CorrelationID(zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCorrelationID_RejectsInvalidHeader(t *testing.T) {
	handler := CorrelationID(zerolog.Nop())(okHandler())

	for _, value := range []string{"has space", strings.Repeat("a", 129), "tab\tid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.Header.Set("X-Request-ID", value)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEqual(t, value, rec.Header().Get("X-Request-ID"))
	}
}

func TestLoggerFromContext_NoLogger(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	logger := LoggerFromContext(req.Context())
	require.NotNil(t, logger)
	require.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := CorrelationID(logger)(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/events", nil))

	out := buf.String()
	require.Contains(t, out, `"status":201`)
	require.Contains(t, out, `"path":"/api/events"`)
	require.Contains(t, out, `"request_id"`)
	require.Contains(t, out, `"level":"info"`)
}

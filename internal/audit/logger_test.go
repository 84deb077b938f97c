package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.LogSuccess("events.create", "user-1", "event", "01HZX", "10.0.0.1", map[string]string{"title": "Picnic"})

	line := decodeLine(t, &buf)
	require.Equal(t, true, line["audit"])
	require.Equal(t, "info", line["level"])
	require.Equal(t, "events.create", line["action"])
	require.Equal(t, "user-1", line["user_id"])
	require.Equal(t, "event", line["resource_type"])
	require.Equal(t, "01HZX", line["resource_id"])
	require.Equal(t, "success", line["status"])
	require.Equal(t, map[string]any{"title": "Picnic"}, line["details"])
}

func TestLogFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.LogFailure("auth.login", "", "10.0.0.2", map[string]string{"email": "a@example.com"})

	line := decodeLine(t, &buf)
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "failure", line["status"])
	require.NotContains(t, line, "resource_id")
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.LogSuccess("events.delete", "u", "event", "e", "ip", nil)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.9")
	require.Equal(t, "198.51.100.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	require.Equal(t, "203.0.113.5", ClientIP(req))
}

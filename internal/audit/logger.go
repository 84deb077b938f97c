package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single audit record for a state-changing operation.
type Entry struct {
	Timestamp    time.Time
	Action       string
	UserID       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string // "success" or "failure"
	Details      map[string]string
}

// Logger writes audit entries as structured lines tagged audit=true so they
// can be filtered out of the request log.
type Logger struct {
	output zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		output: logger.With().Bool("audit", true).Logger(),
	}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.output.Info()
	if entry.Status == "failure" {
		event = l.output.Warn()
	}
	event = event.
		Time("at", entry.Timestamp).
		Str("action", entry.Action).
		Str("user_id", entry.UserID).
		Str("ip_address", entry.IPAddress).
		Str("status", entry.Status)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		event = event.Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for key, value := range entry.Details {
			dict = dict.Str(key, value)
		}
		event = event.Dict("details", dict)
	}
	event.Msg("audit")
}

func (l *Logger) LogSuccess(action, userID, resourceType, resourceID, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		UserID:       userID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Status:       "success",
		Details:      details,
	})
}

func (l *Logger) LogFailure(action, userID, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:    action,
		UserID:    userID,
		IPAddress: ipAddress,
		Status:    "failure",
		Details:   details,
	})
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

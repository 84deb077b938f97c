package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/localevents/internal/metrics"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is the readiness payload.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type HealthChecker struct {
	store     Pinger
	version   string
	gitCommit string
}

func NewHealthChecker(store Pinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{store: store, version: version, gitCommit: gitCommit}
}

// Healthz is the liveness probe; it never touches the store.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz reports 503 while shutting down or when the store is unreachable.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		check := h.checkStore(ctx)
		status, code := "healthy", http.StatusOK
		if check.Status != "pass" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    map[string]CheckResult{"store": check},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func (h *HealthChecker) checkStore(ctx context.Context) CheckResult {
	start := time.Now()
	if h.store == nil {
		metrics.HealthCheckStatus.WithLabelValues("store").Set(0)
		return CheckResult{Status: "fail", Message: "store not initialized"}
	}

	err := h.store.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		metrics.HealthCheckStatus.WithLabelValues("store").Set(0)
		message := "store ping failed"
		if ctx.Err() == context.DeadlineExceeded {
			message = "store ping timed out after 2 seconds"
		}
		return CheckResult{Status: "fail", Message: message, LatencyMs: latency}
	}

	metrics.HealthCheckStatus.WithLabelValues("store").Set(1)
	return CheckResult{Status: "pass", LatencyMs: latency}
}

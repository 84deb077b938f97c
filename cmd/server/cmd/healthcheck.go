package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	timeout time.Duration
	url     string
}

func newHealthcheckCommand() *cobra.Command {
	opts := healthcheckOptions{}
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is ready",
		Long: `Performs a readiness check by calling the /readyz endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server and its store are reachable, non-zero otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := opts.url
			if url == "" {
				url = defaultHealthCheckURL()
			}
			ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
			defer cancel()

			result := performHealthCheck(ctx, url)
			if !result.IsHealthy {
				if result.Error != "" {
					return fmt.Errorf("health check failed: %s", result.Error)
				}
				return fmt.Errorf("unhealthy: status=%s (HTTP %d)", result.Status, result.StatusCode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%dms)\n", result.Status, result.LatencyMs)
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&opts.url, "url", "", "readiness URL (default: http://localhost:{SERVER_PORT}/readyz)")
	return cmd
}

// HealthResponse matches the payload of GET /readyz.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]json.RawMessage `json:"checks,omitempty"`
}

type HealthCheckResult struct {
	URL        string
	Status     string
	StatusCode int
	IsHealthy  bool
	LatencyMs  int64
	Error      string
}

func defaultHealthCheckURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5000"
	}
	return fmt.Sprintf("http://localhost:%s/readyz", port)
}

func performHealthCheck(ctx context.Context, url string) HealthCheckResult {
	result := HealthCheckResult{URL: url}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp, err := http.DefaultClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer func() { _ = resp.Body.Close() }()
	result.StatusCode = resp.StatusCode

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		result.Error = fmt.Sprintf("invalid response: %v", err)
		return result
	}
	result.Status = health.Status
	result.IsHealthy = resp.StatusCode == http.StatusOK && health.Status == "healthy"
	return result
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name  string
		build BuildInfo
		want  versionResponse
	}{
		{
			name:  "explicit values",
			build: BuildInfo{Version: "1.2.0", GitCommit: "abc123", BuildDate: "2026-10-01T00:00:00Z"},
			want:  versionResponse{Version: "1.2.0", GitCommit: "abc123", BuildDate: "2026-10-01T00:00:00Z", GoVersion: runtime.Version()},
		},
		{
			name: "defaults",
			want: versionResponse{Version: "dev", GitCommit: "unknown", BuildDate: "unknown", GoVersion: runtime.Version()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			VersionHandler(tt.build).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var got versionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Equal(t, tt.want, got)
		})
	}
}

package api

import (
	"net/http"
	"runtime"
)

// BuildInfo is set through ldflags at build time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

func (b BuildInfo) withDefaults() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.GitCommit == "" {
		b.GitCommit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler reports build metadata. Public.
func VersionHandler(build BuildInfo) http.Handler {
	build = build.withDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, versionResponse{
			Version:   build.Version,
			GitCommit: build.GitCommit,
			BuildDate: build.BuildDate,
			GoVersion: runtime.Version(),
		})
	})
}

// version/version.go
package version

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/dalemusser/eaicheck/httputil"
	"github.com/go-chi/chi/v5"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/eaicheck/pantry/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/eaicheck/pantry/version.Commit=abc123 \
//	                   -X github.com/dalemusser/eaicheck/pantry/version.BuildTime=2026-01-15T10:30:00Z"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`

	// TextVersion is the golang.org/x/text release providing IDNA and
	// normalization tables, when build info is available.
	TextVersion string `json:"x_text_version,omitempty"`
}

// Get returns the current version info.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if dep.Path == "golang.org/x/text" {
				info.TextVersion = dep.Version
				break
			}
		}
	}
	return info
}

// Handler responds with version info as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// Mount attaches GET /version to r.
func Mount(r chi.Router) {
	r.Method(http.MethodGet, "/version", Handler())
}

// String returns a human-readable version string, e.g.
// "1.2.3 (abc123, built 2026-01-15T10:30:00Z)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}

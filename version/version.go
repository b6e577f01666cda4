// Package version exposes build information set through -ldflags:
//
//	go build -ldflags "-X github.com/solartech/sitio/version.Version=1.4.0 \
//	                   -X github.com/solartech/sitio/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/solartech/sitio/httputil"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the JSON body of GET /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String is used in the startup log line.
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}

// Mount registers GET /version.
func Mount(r chi.Router) {
	info := Get()
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// Package version reports the build the running binary came from
package version

import "runtime/debug"

// Stamped at link time:
//
//	go build -ldflags "-X likert/internal/core/version.version=v0.3.0 -X likert/internal/core/version.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo describes one binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// readBuild is a seam for tests
var readBuild = debug.ReadBuildInfo

// Info returns the build of the running binary under service, likert-api when empty.
// Commit and date fall back to the vcs stamps the go tool embeds
func Info(service string) BuildInfo {
	if service == "" {
		service = "likert-api"
	}
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}

	if b, ok := readBuild(); ok {
		bi.GoVersion = b.GoVersion
		for _, s := range b.Settings {
			switch s.Key {
			case "vcs.revision":
				if bi.Commit == "" {
					bi.Commit = s.Value
				}
			case "vcs.time":
				if bi.Date == "" {
					bi.Date = s.Value
				}
			case "vcs.modified":
				bi.Dirty = s.Value == "true"
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "unknown"
	}
	return bi
}

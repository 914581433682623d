// Package buildinfo identifies the leaderline build that produced a frame,
// answered a health check or printed a version banner.
//
// Release builds stamp the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/leaderline/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/leaderline/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/leaderline/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds fall back to the VCS settings the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// shortCommit is the length of the abbreviated revision in banners.
const shortCommit = 7

// Info is a snapshot of the build stamp.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get returns the build stamp, filling an unset commit or date from the
// embedded VCS settings.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withVCS(bi.Settings)
	}
	return info
}

func (i Info) withVCS(settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.Date == "" {
				i.Date = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
	return i
}

// Revision returns the abbreviated commit, suffixed with "+dirty" for
// builds from a modified tree, or "unknown".
func (i Info) Revision() string {
	if i.Commit == "" {
		return "unknown"
	}
	rev := i.Commit
	if len(rev) > shortCommit {
		rev = rev[:shortCommit]
	}
	if i.Modified {
		rev += "+dirty"
	}
	return rev
}

// Agent names the build in HTTP headers, e.g. "leaderline/v0.3.0 (1a2b3c4)".
func (i Info) Agent() string {
	return fmt.Sprintf("leaderline/%s (%s)", i.Version, i.Revision())
}

// Template returns the cobra version template.
func (i Info) Template() string {
	date := i.Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("{{.Name}} %s\nrevision: %s\nbuilt: %s with %s\n", i.Version, i.Revision(), date, i.GoVersion)
}

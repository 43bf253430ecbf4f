package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Build metadata, normally injected at link time:
//
//	go build -ldflags="-X github.com/muurk/fwfleet/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/fwfleet/internal/version.Commit=abc123" ./cmd/fwfleet
//
// Unset values are filled from the module's VCS build info, then from a
// "dev-<timestamp>" fallback.
var (
	// Version is the semantic version of the binary
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

// product is the name reported in the User-Agent header
const product = "fwfleet"

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Full returns the version string including the commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent returns the value sent in the User-Agent header of API requests
func UserAgent() string {
	return product + "/" + Version
}

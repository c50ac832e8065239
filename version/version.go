// Package version exposes the build version stamped in at link time.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time, e.g.
//
//	go build -ldflags "-X .../version.Version=v1.2.0 -X .../version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unstamped builds fall back to the module's VCS metadata when present.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// GetFullVersion returns the version string printed by the -version flag,
// e.g. "v1.2.0-abc1234 (built 2026-08-01T12:00:00Z)".
func GetFullVersion() string {
	commit, dirty, built := buildMetadata()

	parts := []string{Version}
	if commit != "" {
		parts = append(parts, commit)
	}
	if dirty {
		parts = append(parts, "dirty")
	}

	out := strings.Join(parts, "-")
	if built != "" {
		out += fmt.Sprintf(" (built %s)", built)
	}
	return out
}

// buildMetadata resolves commit, dirty state and build time, preferring the
// ldflags values over what the Go toolchain recorded.
func buildMetadata() (commit string, dirty bool, built string) {
	commit = GitCommit
	built = BuildTime

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "" {
					commit = setting.Value
					if len(commit) > 7 {
						commit = commit[:7]
					}
				}
			case "vcs.modified":
				dirty = setting.Value == "true"
			case "vcs.time":
				if built == "" {
					built = setting.Value
				}
			}
		}
	}

	if built != "" {
		if t, err := time.Parse(time.RFC3339, built); err == nil {
			built = t.UTC().Format(time.RFC3339)
		}
	}
	return commit, dirty, built
}

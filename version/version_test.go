package version

import (
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, GitCommit, BuildTime = version, commit, buildTime
}

func TestGetFullVersionStamped(t *testing.T) {
	stamp(t, "v1.2.0", "abc1234", "2026-08-01T12:00:00Z")

	fv := GetFullVersion()
	if !strings.HasPrefix(fv, "v1.2.0-abc1234") {
		t.Errorf("expected stamped version and commit, got %q", fv)
	}
	if !strings.Contains(fv, "built 2026-08-01T12:00:00Z") {
		t.Errorf("expected the build time, got %q", fv)
	}
}

func TestGetFullVersionUnstamped(t *testing.T) {
	stamp(t, "dev", "", "")

	// Test binaries carry no VCS metadata, so only the commit from
	// ReadBuildInfo may or may not appear; the version always leads.
	fv := GetFullVersion()
	if !strings.HasPrefix(fv, "dev") {
		t.Errorf("expected the version to lead, got %q", fv)
	}
}

func TestBuildMetadataNormalizesTime(t *testing.T) {
	stamp(t, "v1.0.0", "abc1234", "2026-08-01T14:00:00+02:00")

	_, _, built := buildMetadata()
	if built != "2026-08-01T12:00:00Z" {
		t.Errorf("expected UTC build time, got %q", built)
	}
}

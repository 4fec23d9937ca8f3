// Package version reports build information for the quickstart binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildTime is the time when the binary was built (RFC3339 format)
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version       string    `json:"version" yaml:"version"`
	GitCommit     string    `json:"git_commit" yaml:"git_commit"`
	BuildTime     time.Time `json:"build_time" yaml:"build_time"`
	GoVersion     string    `json:"go_version" yaml:"go_version"`
	Platform      string    `json:"platform" yaml:"platform"`
	ArchiveFormat int       `json:"archive_format" yaml:"archive_format"`
	Dirty         bool      `json:"dirty" yaml:"dirty"`
}

// GetBuildInfo returns build information. archiveFormat is the archive
// version the binary writes.
func GetBuildInfo(archiveFormat int) *BuildInfo {
	settings := vcsSettings()

	return &BuildInfo{
		Version:       resolveVersion(settings),
		GitCommit:     resolveCommit(settings),
		BuildTime:     parseBuildTime(BuildTime),
		GoVersion:     runtime.Version(),
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		ArchiveFormat: archiveFormat,
		Dirty:         settings["vcs.modified"] == "true",
	}
}

// Short returns a one-line version string such as "1.2.0 (abc1234)".
func (b *BuildInfo) Short() string {
	if len(b.GitCommit) < 7 || b.GitCommit == "unknown" {
		return b.Version
	}
	if b.Version == "dev" {
		return "dev-" + b.GitCommit[:7]
	}
	return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
}

// Detailed returns every field on its own line.
func (b *BuildInfo) Detailed() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		lines = append(lines, "Commit: "+b.GitCommit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines,
		"Go: "+b.GoVersion,
		"Platform: "+b.Platform,
		fmt.Sprintf("Archive format: %d", b.ArchiveFormat),
	)
	if b.Dirty {
		lines = append(lines, "Working directory: dirty")
	}
	return strings.Join(lines, "\n")
}

// IsRelease returns true if this is a release build (not dev)
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}

func vcsSettings() map[string]string {
	settings := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	settings["main.version"] = info.Main.Version
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

func resolveVersion(settings map[string]string) string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if v := settings["main.version"]; v != "" && v != "(devel)" {
		return v
	}
	if rev := settings["vcs.revision"]; len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

func resolveCommit(settings map[string]string) string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return rev
	}
	return "unknown"
}

// parseBuildTime parses an ISO 8601 time string, returns zero time on error
func parseBuildTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/timescope/timescope/version.Version=...".
package version

var (
	Version = "dev"
	Date    = "unknown"
)

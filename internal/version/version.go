// Package version carries build-time version metadata.
package version

import "fmt"

// Version is set via build-time ldflags in release builds:
// go build -ldflags "-X github.com/A1i98/obsidian-digital-garden/internal/version.Version=v1.2.0".
var Version = "unknown"

// Additional build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the single-line version description shown by --version.
func String() string {
	return fmt.Sprintf("gardenbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

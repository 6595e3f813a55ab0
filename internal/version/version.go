// Package version carries build metadata injected at link time.
package version

import "fmt"

var (
	// Version is overridden by -ldflags at release builds.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the human-readable version line.
func String() string {
	return fmt.Sprintf("pgdialect %s (commit %s, built %s)", Version, Commit, Date)
}

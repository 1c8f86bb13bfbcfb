// Package version exposes the build metadata stamped in at link time.
package version

import (
	"fmt"
	"runtime"
)

// Overridden via -ldflags on release builds; "dev" marks a local build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns the complete version line the version verb prints.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

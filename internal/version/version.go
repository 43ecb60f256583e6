// Package version exposes build metadata stamped via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with
// -ldflags "-X wanwatcher/internal/version.Version=... -X wanwatcher/internal/version.BuildDate=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns version information for the running binary
func GetInfo() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("wanwatcher %s (built %s, %s, %s)",
		i.Version, i.BuildDate, i.GoVersion, i.Platform)
}

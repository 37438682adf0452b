// SPDX-License-Identifier: MIT
//
// Package build exposes build metadata embedded into the binary via
// -ldflags. When the binary is built without flags (development builds),
// placeholder values are reported instead of failing startup.
package build

// Info holds the metadata injected at compile time, for example:
//
//	go build -ldflags "-X soundlog/pkg/build.buildName=soundlog \
//	                   -X soundlog/pkg/build.buildVersion=0.1.0"
type Info struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// GetInfo returns the build metadata, substituting development defaults
// for any flag that was not set at link time.
func GetInfo() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "soundlog"
	}
	if info.Time == "" {
		info.Time = "unknown"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// CoreVersion is the version of the core type module the generated
// declarations import from. Plugins may constrain it (see plugin.Manifest.Core).
// Overridden by project.core_version in dtsgen.toml.
var CoreVersion = "3.0.0"

// Info contains version and build information
type Info struct {
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
	Version     string `json:"version"`
	CoreVersion string `json:"core_version"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:  CommitHash,
		BuildTime:   BuildTime,
		Version:     Version,
		CoreVersion: CoreVersion,
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("dtsgen %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("dtsgen dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

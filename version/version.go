package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// These will be set by build flags or default to development values
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Package string `json:"package"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetVersion returns the version string, preferring compile-time version if available
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := readBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

// GetCommit returns the git commit hash, preferring compile-time commit if available
func GetCommit() string {
	return stamp(Commit, "vcs.revision")
}

// GetBuildDate returns the build date, preferring compile-time date if available
func GetBuildDate() string {
	return stamp(Date, "vcs.time")
}

// stamp returns the link-time value when set, else the build setting key.
func stamp(linked, key string) string {
	if linked != "unknown" && linked != "" {
		return linked
	}
	if info, ok := readBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == key {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// GetInfo returns complete version information
func GetInfo() Info {
	return Info{
		Version: GetVersion(),
		Commit:  GetCommit(),
		Date:    GetBuildDate(),
		Package: "fpart",
	}
}

// GetFullVersion returns a formatted version string with commit and date
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit == "unknown" || len(info.Commit) <= 7 {
		return info.Version
	}
	short := info.Commit[:7]
	if info.Date != "unknown" {
		return fmt.Sprintf("%s (%s, built %s)", info.Version, short, info.Date)
	}
	return fmt.Sprintf("%s (%s)", info.Version, short)
}

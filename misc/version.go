// Package misc keeps build time information about the program.
package misc

import (
	"runtime/debug"
)

const appName = "kfm"

// set by linker: -ldflags "-X kfm/misc.version=... -X kfm/misc.githash=..."
var (
	version = "dev"
	githash = ""
)

// GetAppName returns application name.
func GetAppName() string {
	return appName
}

// GetVersion returns application version.
func GetVersion() string {
	return version
}

// GetGitHash returns git hash of the build if it is known.
func GetGitHash() string {
	if len(githash) > 0 {
		return githash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// Package version carries the release version stamped into builds.
package version

// Version is overridden at release time via
// -ldflags "-X reelpress/internal/version.Version=...".
var Version = "0.3.0"

// String returns the tool name and version, as embedded in compositions and
// printed by the version command.
func String() string {
	return "reelpress " + Version
}

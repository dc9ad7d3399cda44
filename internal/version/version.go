// Package version reports the build version of the binaries.
package version

import "runtime/debug"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/couchcryptid/montreal-aqi/internal/version.Version=v1.2.0"
var Version string

const devVersion = "0.0.0-dev"

// String returns the linker-provided version, then the module version
// recorded in the build info, then a development placeholder.
func String() string {
	info, ok := debug.ReadBuildInfo()
	return resolve(Version, info, ok)
}

func resolve(linked string, info *debug.BuildInfo, ok bool) string {
	if linked != "" {
		return linked
	}
	if ok && info != nil && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}

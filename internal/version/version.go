// Package version exposes the build version of the binary.
package version

import "runtime/debug"

var (
	// Version is set at build time using -ldflags. It falls back to the
	// module version embedded by go install.
	Version = "dev"
)

func init() {
	if Version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

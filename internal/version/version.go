package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, set at link time:
// go build -ldflags "-X github.com/OldUser101/tars/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set at link time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the text printed by --version. When no version was linked
// in, the module version recorded by `go install` is used.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "tars " + v
	}
	return fmt.Sprintf("tars %s (commit %s, built %s)", v, GitCommit, BuildTime)
}

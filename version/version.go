// Package version reports the version of the torque binaries.
package version

import (
	"runtime/debug"
	"strings"
)

// Version can be set at build time:
// go build -ldflags "-X github.com/torque-tracker/torque/version.Version=$(git describe --dirty)"
var Version string

// Build describes the binary as recorded by the Go toolchain.
type Build struct {
	Revision  string // short vcs revision, "" if unknown
	Modified  bool   // the working tree had local changes
	GoVersion string
}

var info = func() Build {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Build{}
	}
	b := Build{GoVersion: bi.GoVersion}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value[:min(7, len(s.Value))]
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}()

// Info returns the build information of the running binary.
func Info() Build { return info }

// Hash is the short revision, suffixed with -dirty for modified trees.
func (b Build) Hash() string {
	if b.Revision == "" {
		return ""
	}
	if b.Modified {
		return b.Revision + "-dirty"
	}
	return b.Revision
}

// VersionOrHash is Version if it was set at build time and the vcs hash
// otherwise.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return info.Hash()
}()

// String returns a one line description, e.g. "v0.3.0 (go1.23.8)".
func String() string {
	var sb strings.Builder
	sb.WriteString("torque ")
	if VersionOrHash != "" {
		sb.WriteString(VersionOrHash)
	} else {
		sb.WriteString("(devel)")
	}
	if info.GoVersion != "" {
		sb.WriteString(" (" + info.GoVersion + ")")
	}
	return sb.String()
}

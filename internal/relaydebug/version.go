package relaydebug

import (
	"runtime/debug"
	"strconv"
)

// BuildCommit returns the vcs.revision stamped into the binary,
// suffixed with " (dirty)" when the working tree had uncommitted changes.
// Binaries produced by "go run" or "go test" report "unknown".
func BuildCommit() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown (built without module support?)"
	}

	var (
		rev   = "unknown"
		dirty bool
	)
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty, _ = strconv.ParseBool(s.Value)
		}
	}

	if dirty {
		return rev + " (dirty)"
	}
	return rev
}

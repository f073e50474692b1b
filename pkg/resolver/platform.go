package resolver

import (
	"os"
	"syscall"
)

// deviceOf reports the filesystem device number backing dir, so
// findProjectFile can stop walking at a filesystem boundary rather than
// wandering onto a different mount (spec.md §4.7: "Walking does not cross
// filesystem boundaries").
func deviceOf(dir string) (uint64, bool) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(stat.Dev), true
}

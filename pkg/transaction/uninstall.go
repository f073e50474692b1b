package transaction

import (
	"os"
	"path/filepath"
)

// Uninstall deletes every path in files (relative to root), then walks each
// file's ancestor directories bottom-up deleting any that are now empty,
// stopping at root itself (spec.md §4.6: "walks the recorded file list for
// that component, deletes each file, then walks the parent directories
// bottom-up deleting any that are now empty").
func Uninstall(root string, files []string) error {
	emptyCandidates := map[string]bool{}

	for _, rel := range files {
		full := filepath.Join(root, rel)
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return err
		}
		for dir := filepath.Dir(full); dir != root && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			emptyCandidates[dir] = true
		}
	}

	// Deepest paths first, so a parent isn't checked (and found non-empty
	// because its child dir still exists) before the child is removed.
	dirs := make([]string, 0, len(emptyCandidates))
	for d := range emptyCandidates {
		dirs = append(dirs, d)
	}
	sortByDepthDescending(dirs)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// sortByDepthDescending orders dirs so the deepest (longest) paths come
// first. Length is not depth, but a directory's path is always longer than
// any of its ancestors', so every directory still sorts before its parents.
func sortByDepthDescending(dirs []string) {
	for i := 1; i < len(dirs); i++ {
		for j := i; j > 0 && len(dirs[j]) > len(dirs[j-1]); j-- {
			dirs[j], dirs[j-1] = dirs[j-1], dirs[j]
		}
	}
}

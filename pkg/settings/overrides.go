package settings

import "path/filepath"

// canonicalize normalizes a directory path the way override lookups compare
// it: symlinks resolved where possible, then cleaned. Symlink resolution
// failures (path doesn't exist yet, permission denied) fall back to the
// cleaned-but-unresolved path rather than erroring, since override set can
// legitimately target directories that exist but whose parents the caller
// can't fully stat.
func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return filepath.Clean(resolved)
	}
	return filepath.Clean(path)
}

// SetOverride binds dir to toolchain, replacing any existing binding for the
// same canonicalized directory.
func (s *Settings) SetOverride(dir, toolchain string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := canonicalize(dir)
	for i := range s.Overrides {
		if s.Overrides[i].Path == key {
			s.Overrides[i].Toolchain = toolchain
			return
		}
	}
	s.Overrides = append(s.Overrides, Override{Path: key, Toolchain: toolchain})
}

// UnsetOverride removes the binding for dir, if any, reporting whether a
// binding existed.
func (s *Settings) UnsetOverride(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := canonicalize(dir)
	for i := range s.Overrides {
		if s.Overrides[i].Path == key {
			s.Overrides = append(s.Overrides[:i], s.Overrides[i+1:]...)
			return true
		}
	}
	return false
}

// FindOverride walks dir upward toward the filesystem root looking for the
// nearest ancestor (inclusive) with a bound override, implementing the
// "innermost directory wins" rule from spec.md §4.7. It returns the
// toolchain name and ok=true on a match.
func (s *Settings) FindOverride(dir string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := canonicalize(dir)
	for {
		for _, o := range s.Overrides {
			if o.Path == cur {
				return o.Toolchain, true
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

// OverrideList returns a copy of the current override list, safe for the
// caller to range over without holding the settings lock.
func (s *Settings) OverrideList() []Override {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Override, len(s.Overrides))
	copy(out, s.Overrides)
	return out
}

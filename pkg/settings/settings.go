// Package settings implements rustup's persistent configuration store,
// <RUSTUP_HOME>/settings.toml: the default toolchain, default host, install
// profile, directory overrides, and self-update policy (spec.md §3, §4.2).
//
// Save and the in-memory accessors are guarded by a process-local mutex;
// the advisory cross-process flock in lock.go is separate and is not taken
// by Load or Save. The file handling is grounded on the teacher's JSON
// credentials-file handling (pkg/config/context.go's ClientAuthHeader,
// which reads a small structured file from a well-known path) generalised
// to TOML and to a write path that's atomic against crashes.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// SchemaVersion is the current on-disk settings schema. Bump and handle a
// migration path in Load whenever the TOML shape changes incompatibly.
const SchemaVersion = "12"

// SelfUpdatePolicy controls whether `rustup self update` runs automatically.
type SelfUpdatePolicy string

const (
	SelfUpdateEnable  SelfUpdatePolicy = "enable"
	SelfUpdateDisable SelfUpdatePolicy = "disable"
	// SelfUpdateCheckOnly reports that a new dispatcher version is
	// available without downloading or installing it (spec.md §4.10).
	SelfUpdateCheckOnly SelfUpdatePolicy = "check-only"
)

// Valid reports whether p is one of the three enumerated policy values.
func (p SelfUpdatePolicy) Valid() bool {
	switch p {
	case SelfUpdateEnable, SelfUpdateDisable, SelfUpdateCheckOnly:
		return true
	default:
		return false
	}
}

// Override binds a canonicalized directory path to a toolchain name,
// implementing `rustup override set`/`rustup override unset` (spec.md §4.7).
type Override struct {
	Path      string `toml:"path"`
	Toolchain string `toml:"toolchain"`
}

// Settings is the decoded form of settings.toml.
type Settings struct {
	Version          string           `toml:"version"`
	DefaultToolchain string           `toml:"default_toolchain,omitempty"`
	DefaultHostTriple string          `toml:"default_host_triple,omitempty"`
	Profile          string           `toml:"profile,omitempty"`
	AutoSelfUpdate   SelfUpdatePolicy `toml:"auto_self_update,omitempty"`
	Overrides        []Override       `toml:"overrides,omitempty"`

	// path records where this Settings was loaded from (or would be
	// written to), not itself serialized.
	path string `toml:"-"`
	mu   sync.Mutex
}

// ErrSchemaMismatch is returned by Load when settings.toml declares a schema
// version this build does not know how to read.
var ErrSchemaMismatch = errors.New("settings: unsupported schema version")

// Default returns a fresh Settings with no toolchain configured yet, the
// "default" profile, and self-update enabled, as rustup-init would write on
// first install.
func Default(path string) *Settings {
	return &Settings{
		Version:        SchemaVersion,
		Profile:        "default",
		AutoSelfUpdate: SelfUpdateEnable,
		path:           path,
	}
}

// Load reads settings from path, falling back to fallbackPaths in order
// (e.g. a system-wide /etc/rustup/settings.toml) if path does not exist.
// If none exist, Load returns a fresh Default settings with path set to the
// primary path, exactly as a first-run rustup would.
func Load(path string, fallbackPaths ...string) (*Settings, error) {
	candidates := append([]string{path}, fallbackPaths...)

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("settings: reading %s: %w", candidate, err)
		}

		var s Settings
		if _, err := toml.Decode(string(data), &s); err != nil {
			return nil, fmt.Errorf("settings: parsing %s: %w", candidate, err)
		}
		if s.Version != "" && s.Version != SchemaVersion {
			return nil, fmt.Errorf("%w: have %q, want %q", ErrSchemaMismatch, s.Version, SchemaVersion)
		}
		if s.Version == "" {
			s.Version = SchemaVersion
		}
		// A missing profile key defaults to "default" (spec.md invariant).
		if s.Profile == "" {
			s.Profile = "default"
		}
		if s.AutoSelfUpdate == "" {
			s.AutoSelfUpdate = SelfUpdateEnable
		}
		s.path = path
		return &s, nil
	}

	return Default(path), nil
}

// Save atomically writes s back to its load path: encode to a temp file in
// the same directory, fsync it, then rename over the destination. The
// same-directory temp file keeps the rename within one filesystem so it's
// atomic on POSIX, and avoids ever leaving settings.toml half-written if the
// process is killed mid-write.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Settings) saveLocked() error {
	if s.path == "" {
		return fmt.Errorf("settings: no path set")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("settings: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: encoding: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("settings: renaming into place: %w", err)
	}
	return nil
}

// Path returns the file this Settings was loaded from / will save to.
func (s *Settings) Path() string { return s.path }

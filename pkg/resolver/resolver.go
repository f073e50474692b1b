// Package resolver implements rustup's toolchain resolution precedence
// chain (spec.md §4.7): it maps a process invocation context to exactly
// one toolchain name and explains how it got there.
//
// The RUSTUP_HOME/RUSTUP_TOOLCHAIN environment-variable contract this
// package resolves against is grounded directly on the teacher's own
// pkg/artifact/language/rust.go, which builds a Rust build environment by
// setting exactly these two variables (plus PATH) to point at one
// toolchain's bin directory — this package is the piece that decides what
// those values should be instead of taking them as given.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustup-rs/rustup/pkg/settings"
)

// Source names which precedence rule supplied the resolved toolchain, for
// diagnostics (Explain) and tests.
type Source int

const (
	SourceArgOverride Source = iota
	SourceEnvVar
	SourceDirectoryOverride
	SourceProjectFile
	SourceDefault
	SourceNone
)

func (s Source) String() string {
	switch s {
	case SourceArgOverride:
		return "+toolchain argument"
	case SourceEnvVar:
		return "RUSTUP_TOOLCHAIN environment variable"
	case SourceDirectoryOverride:
		return "directory override"
	case SourceProjectFile:
		return "project toolchain file"
	case SourceDefault:
		return "default toolchain"
	default:
		return "none"
	}
}

// Invocation is the process invocation context the resolver reasons over,
// per spec.md §6's external-interface contract.
type Invocation struct {
	// Program is the dispatched tool name (e.g. "rustc"), unused for
	// resolution itself but carried for the proxy dispatcher's benefit.
	Program string
	// ArgToolchain is a leading "+name" argument already stripped by the
	// proxy, or empty.
	ArgToolchain string
	// Cwd is the invocation's working directory.
	Cwd string
	// Env looks up an environment variable by name; production callers
	// pass os.Getenv, tests pass a fake map-backed lookup.
	Env func(string) string
}

// Resolution is the resolver's result: the toolchain name to run and which
// precedence rule produced it.
type Resolution struct {
	Toolchain string
	Source    Source
	// NeedsInstall is true when the resolved toolchain name isn't
	// currently installed and must be auto-installed before use.
	NeedsInstall bool
}

// ErrNoDefaultToolchain is returned when resolution falls through to the
// default and the default is unset or explicitly "none" (spec.md §4.7:
// "a proxy invoked in that state fails with a diagnostic telling the user
// how to install one").
var ErrNoDefaultToolchain = fmt.Errorf("resolver: no default toolchain configured; run 'rustup toolchain install stable' or 'rustup default <toolchain>'")

// IsInstalled reports whether a name is a currently installed toolchain
// directory name, injected so Resolve doesn't hard-code a filesystem check.
type IsInstalled func(name string) bool

// Resolve applies the full precedence chain from spec.md §4.7:
//
//  1. inv.ArgToolchain, if set.
//  2. RUSTUP_TOOLCHAIN environment variable.
//  3. The innermost directory override applying to cwd or an ancestor.
//  4. The nearest project toolchain file walking from cwd to the
//     filesystem root (rust-toolchain beating rust-toolchain.toml at equal
//     depth, per findProjectFile).
//  5. The default toolchain from settings.
//
// Tie-break between (3) and (4): whichever is found at a shallower walk
// depth (closer to cwd) wins; equal depth favors the project file.
func Resolve(inv Invocation, s *settings.Settings, installed IsInstalled) (*Resolution, error) {
	if inv.ArgToolchain != "" {
		return &Resolution{
			Toolchain:    inv.ArgToolchain,
			Source:       SourceArgOverride,
			NeedsInstall: !installed(inv.ArgToolchain),
		}, nil
	}

	if env := inv.Env; env != nil {
		if v := env("RUSTUP_TOOLCHAIN"); v != "" {
			return &Resolution{
				Toolchain:    v,
				Source:       SourceEnvVar,
				NeedsInstall: !installed(v),
			}, nil
		}
	}

	overrideName, overrideDepth, hasOverride := findOverrideWithDepth(inv.Cwd, s)
	projectFile, projectDepth, hasProject := findProjectFile(inv.Cwd)

	switch {
	case hasOverride && hasProject:
		if overrideDepth < projectDepth {
			return resolveOverride(overrideName, installed), nil
		}
		return resolveProjectFile(projectFile, installed)
	case hasOverride:
		return resolveOverride(overrideName, installed), nil
	case hasProject:
		return resolveProjectFile(projectFile, installed)
	}

	if s.DefaultToolchain == "" || s.DefaultToolchain == "none" {
		return nil, ErrNoDefaultToolchain
	}
	return &Resolution{
		Toolchain:    s.DefaultToolchain,
		Source:       SourceDefault,
		NeedsInstall: !installed(s.DefaultToolchain),
	}, nil
}

func resolveOverride(name string, installed IsInstalled) *Resolution {
	return &Resolution{Toolchain: name, Source: SourceDirectoryOverride, NeedsInstall: !installed(name)}
}

func resolveProjectFile(f *ProjectFile, installed IsInstalled) (*Resolution, error) {
	if f.Path != "" {
		// A path key names a custom toolchain directory directly; nothing
		// to auto-install, the directory either exists or it's an error
		// the caller surfaces when it tries to use it.
		return &Resolution{Toolchain: f.Path, Source: SourceProjectFile}, nil
	}
	return &Resolution{
		Toolchain:    f.Channel,
		Source:       SourceProjectFile,
		NeedsInstall: !installed(f.Channel),
	}, nil
}

// findOverrideWithDepth walks cwd toward the root, returning the nearest
// bound override and how many steps up from cwd it was found at (0 means
// bound exactly at cwd).
func findOverrideWithDepth(cwd string, s *settings.Settings) (name string, depth int, ok bool) {
	overrides := s.OverrideList()
	cur := filepath.Clean(cwd)
	for d := 0; ; d++ {
		for _, o := range overrides {
			if o.Path == cur {
				return o.Toolchain, d, true
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", 0, false
		}
		cur = parent
	}
}

// ProjectFile is a parsed rust-toolchain / rust-toolchain.toml.
type ProjectFile struct {
	Channel    string
	Path       string
	Profile    string
	Components []string
	Targets    []string
}

// findProjectFile walks from cwd to the filesystem root looking for
// rust-toolchain.toml or rust-toolchain, preferring the legacy bare name
// when both exist in the same directory (spec.md §4.7: "backwards
// compatibility"). Walking stops at a filesystem boundary.
func findProjectFile(cwd string) (*ProjectFile, int, bool) {
	cur := filepath.Clean(cwd)
	startDev, startOK := deviceOf(cur)

	for d := 0; ; d++ {
		if startOK {
			if dev, ok := deviceOf(cur); ok && dev != startDev {
				return nil, 0, false
			}
		}

		bare := filepath.Join(cur, "rust-toolchain")
		tomlPath := filepath.Join(cur, "rust-toolchain.toml")

		if data, err := os.ReadFile(bare); err == nil {
			pf, err := parseLegacyOrTOML(data)
			if err == nil {
				return pf, d, true
			}
		} else if data, err := os.ReadFile(tomlPath); err == nil {
			pf, err := parseProjectTOML(data)
			if err == nil {
				return pf, d, true
			}
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, 0, false
		}
		cur = parent
	}
}

// parseLegacyOrTOML handles the rust-toolchain filename, which historically
// holds a bare channel name but may also be the TOML form (identified by a
// leading "[toolchain]" table header).
func parseLegacyOrTOML(data []byte) (*ProjectFile, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return parseProjectTOML(data)
	}
	// Legacy bare form is specified as ASCII; per the open question in
	// spec.md §9, any non-ASCII byte without a TOML table header is an
	// error rather than a guess.
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] > 0x7F {
			return nil, fmt.Errorf("resolver: rust-toolchain contains non-ASCII bytes without a TOML table header")
		}
	}
	if trimmed == "" {
		return nil, fmt.Errorf("resolver: empty rust-toolchain file")
	}
	return &ProjectFile{Channel: trimmed}, nil
}

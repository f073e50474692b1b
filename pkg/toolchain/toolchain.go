package toolchain

import (
	"fmt"
	"time"

	"github.com/rustup-rs/rustup/pkg/triple"
)

// Profile names an install profile, selecting which default component set a
// fresh toolchain install pulls in (spec.md §3).
type Profile string

const (
	ProfileMinimal  Profile = "minimal"
	ProfileDefault  Profile = "default"
	ProfileComplete Profile = "complete"
)

// Valid reports whether p is one of the three recognised profiles.
func (p Profile) Valid() bool {
	switch p {
	case ProfileMinimal, ProfileDefault, ProfileComplete:
		return true
	default:
		return false
	}
}

// Component identifies an installable piece of a toolchain, optionally
// restricted to a target other than the toolchain's own host (an
// "extension", e.g. rust-std for a cross-compile target).
type Component struct {
	// Pkg is the manifest package name, e.g. "rustc", "rust-std", "clippy".
	Pkg string
	// Target is the triple this component is built for. Equal to the
	// toolchain's own host triple unless the component is a cross target's
	// rust-std, in which case it differs.
	Target triple.Triple
}

// String renders the component the way rustup's CLI names them, e.g.
// "rust-std-aarch64-apple-darwin"; the target suffix is always appended,
// host components included ("clippy-x86_64-unknown-linux-gnu").
func (c Component) String() string {
	return fmt.Sprintf("%s-%s", c.Pkg, c.Target.String())
}

// Equal compares components by package name and target triple.
func (c Component) Equal(other Component) bool {
	return c.Pkg == other.Pkg && c.Target.Equal(other.Target)
}

// Toolchain is the installed, on-disk record of one toolchain: its name as
// given to `rustup toolchain install`, the concrete version it resolved to,
// its host triple, and its installed components.
type Toolchain struct {
	// Name is the directory name under toolchains/, e.g. "stable-x86_64-unknown-linux-gnu"
	// or a custom-toolchain name for linked toolchains.
	Name string
	// Host is the triple this toolchain runs on.
	Host triple.Triple
	// Version is the concrete rustc version string this toolchain resolved
	// to at install time (e.g. "1.74.0"), empty for custom/linked toolchains.
	Version string
	// Date is the nightly build date this toolchain resolved to, nil for
	// non-nightly or undated channels.
	Date *string
	// Components lists every installed component.
	Components []Component
	// Linked is true when this toolchain is a symlink to an external
	// directory (`rustup toolchain link`) rather than a managed install.
	Linked bool
	// InstalledAt records when the toolchain directory was created or last
	// replaced by a successful transaction commit.
	InstalledAt time.Time
}

// HasComponent reports whether c (by package name and target) is already
// installed.
func (t Toolchain) HasComponent(c Component) bool {
	for _, existing := range t.Components {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

// IsNightly reports whether this toolchain tracks the nightly channel,
// judged from the name prefix rustup itself assigns at install time.
func (t Toolchain) IsNightly() bool {
	return len(t.Name) >= 7 && t.Name[:7] == "nightly"
}

// Package manifest models rustup's release manifest: the TOML catalog
// published for one date's build of one channel, and the operations that
// resolve package names, enumerate profiles, and diff against installed
// state (spec.md §4.4).
//
// Decoding follows the teacher's own TOML-decode idiom
// (pkg/artifact/language/rust.go, which decodes a Cargo.toml with
// BurntSushi/toml into a struct tree) generalised to the manifest schema of
// spec.md §6.
package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TargetAvailability is one package's per-target artifact record.
type TargetAvailability struct {
	Available bool   `toml:"available"`
	URL       string `toml:"url"`
	Hash      string `toml:"hash"`
	XZURL     string `toml:"xz_url"`
	XZHash    string `toml:"xz_hash"`
	ZstURL    string `toml:"zst_url"`
	ZstHash   string `toml:"zst_hash"`
}

// Package is one manifest package entry (e.g. "rustc", "rust-std"),
// carrying its version and a per-target availability matrix.
type Package struct {
	Version string                        `toml:"version"`
	Target  map[string]TargetAvailability `toml:"target"`
}

// Manifest is the decoded form of one channel-rust-<channel>.toml document.
type Manifest struct {
	ManifestVersion string             `toml:"manifest-version"`
	Date            string             `toml:"date"`
	Pkg             map[string]Package `toml:"pkg"`
	Renames         map[string]struct {
		To string `toml:"to"`
	} `toml:"renames"`
	Profiles map[string][]string `toml:"profiles"`
}

// ErrManifestInvalid is returned for malformed manifest content: cyclic
// rename chains are the primary case (spec.md §9 — "treat as a manifest
// error; do not attempt to repair").
type ErrManifestInvalid struct {
	Reason string
}

func (e *ErrManifestInvalid) Error() string { return "manifest invalid: " + e.Reason }

// ErrComponentUnavailable is returned when a resolved package has no
// artifact for the requested target.
type ErrComponentUnavailable struct {
	Package string
	Target  string
}

func (e *ErrComponentUnavailable) Error() string {
	return fmt.Sprintf("component %q unavailable for target %q", e.Package, e.Target)
}

// Decode parses manifest TOML content.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("manifest: decoding: %w", err)
	}
	return &m, nil
}

// ResolvePackage looks up name, following the rename chain until it reaches
// a package actually present in the manifest. Cycles (a name that leads
// back to one already visited) are reported as ErrManifestInvalid, per
// spec.md §4.4/§9.
func (m *Manifest) ResolvePackage(name string) (resolvedName string, pkg Package, err error) {
	visited := map[string]bool{}
	cur := name
	for {
		if visited[cur] {
			return "", Package{}, &ErrManifestInvalid{Reason: fmt.Sprintf("cyclic rename chain starting at %q", name)}
		}
		visited[cur] = true

		if p, ok := m.Pkg[cur]; ok {
			return cur, p, nil
		}
		rename, ok := m.Renames[cur]
		if !ok {
			return "", Package{}, fmt.Errorf("manifest: package %q not found", name)
		}
		cur = rename.To
	}
}

// Availability resolves pkg's artifact for target, returning
// ErrComponentUnavailable if the target has no published artifact.
func (p Package) Availability(target string) (TargetAvailability, error) {
	ta, ok := p.Target[target]
	if !ok || !ta.Available {
		return TargetAvailability{}, &ErrComponentUnavailable{Target: target}
	}
	return ta, nil
}

// ComponentsForProfile returns the package names making up profile, or an
// error if the manifest defines no such profile.
func (m *Manifest) ComponentsForProfile(profile string) ([]string, error) {
	names, ok := m.Profiles[profile]
	if !ok {
		return nil, fmt.Errorf("manifest: unknown profile %q", profile)
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

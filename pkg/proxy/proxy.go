// Package proxy implements the argv0-dispatched shim entry point shared by
// every tool name rustup installs (rustc, cargo, rustfmt, ...) and by rustup
// itself (spec.md §4.8).
//
// The dispatch shape — inspect the invoking name, branch into a table of
// known handlers, fall through to an error for anything else — mirrors the
// teacher's internal/cli/command.go, which switches on os.Args[1] into a
// table of flag.FlagSets; here the switch key is argv0 instead of argv1,
// and the "handler" is "resolve a toolchain and re-exec" rather than a
// flag-parsed subcommand body.
package proxy

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rustup-rs/rustup/pkg/resolver"
	"github.com/rustup-rs/rustup/pkg/settings"
	"github.com/rustup-rs/rustup/pkg/toolchain"
)

// Shims lists every tool name the dispatcher can impersonate, per spec.md
// §4.8. "rustup" and "rustup-init" are handled separately: Plan reports
// them via IsCLIName so the caller enters the CLI instead of proxying.
var Shims = []string{
	"rustc", "cargo", "rustdoc", "rustfmt", "cargo-fmt", "cargo-clippy",
	"clippy-driver", "rls", "miri", "cargo-miri", "rust-analyzer",
	"rust-gdb", "rust-gdbgui", "rust-lldb",
}

// IsCLIName reports whether name (already normalised by NormalizeArg0)
// should enter the rustup CLI rather than be proxied.
func IsCLIName(name string) bool {
	return name == "rustup" || name == "rustup-init"
}

// NormalizeArg0 case-folds name and strips a platform executable suffix, so
// "RUSTC.EXE" and "rustc" dispatch identically (spec.md §4.8).
func NormalizeArg0(arg0 string) string {
	base := filepath.Base(arg0)
	base = strings.TrimSuffix(base, ".exe")
	base = strings.TrimSuffix(base, ".EXE")
	return strings.ToLower(base)
}

// ErrUnknownShim is returned when argv0 normalises to a name the dispatcher
// doesn't recognize at all.
type ErrUnknownShim struct{ Name string }

func (e *ErrUnknownShim) Error() string {
	return fmt.Sprintf("proxy: %q is not a known rustup-proxied tool", e.Name)
}

// ErrRecursion is returned when the resolved target binary is the
// dispatcher's own executable, which would recurse forever if exec'd
// (spec.md §4.8).
type ErrRecursion struct{ Path string }

func (e *ErrRecursion) Error() string {
	return fmt.Sprintf("proxy: refusing to proxy into self at %q", e.Path)
}

// Dispatcher holds the state one Plan call needs: where toolchains live and
// how to check whether a given one is installed.
type Dispatcher struct {
	RustupHome string
	Installed  resolver.IsInstalled
}

// Request is the normalized shape Plan reasons over, built by the caller
// from raw os.Args/os.Environ (kept free of os.* so it's testable without a
// real process).
type Request struct {
	// Arg0 is the raw, un-normalised argv0 the OS handed the process.
	Arg0 string
	// Args is argv[1:], forwarded byte-for-byte (non-UTF-8 safe: these are
	// plain strings carrying whatever bytes argv held, never re-decoded).
	Args []string
	Env  func(string) string
	Cwd  string
	// SelfPath is the dispatcher's own resolved executable path, used for
	// recursion protection.
	SelfPath string
}

// Plan is Dispatcher.Plan's result: either "enter the CLI" (handled by the caller)
// or "re-exec this binary with these args".
type Plan struct {
	IsCLI      bool
	Target     string
	Args       []string
	Resolution *resolver.Resolution
}

// Plan computes what the dispatcher would run, without performing process
// replacement, so both the real binary and tests can drive the same logic.
// The prelude (arg0 normalization and the CLI-name check) does no
// allocation beyond the one lowercased string, matching spec.md §4.8's
// requirement that shim overhead stay negligible until dispatch is certain
// to happen.
func (d *Dispatcher) Plan(req Request) (*Plan, error) {
	arg0 := req.Arg0
	if req.Env != nil {
		if forced := req.Env("RUSTUP_FORCE_ARG0"); forced != "" {
			arg0 = forced
		}
	}
	name := NormalizeArg0(arg0)

	if IsCLIName(name) {
		return &Plan{IsCLI: true}, nil
	}

	known := false
	for _, shim := range Shims {
		if shim == name {
			known = true
			break
		}
	}
	if !known {
		return nil, &ErrUnknownShim{Name: name}
	}

	s, err := settings.Load(toolchain.SettingsPath(d.RustupHome))
	if err != nil {
		return nil, fmt.Errorf("proxy: loading settings: %w", err)
	}

	args := req.Args
	var argToolchain string
	if len(args) > 0 && strings.HasPrefix(args[0], "+") {
		argToolchain = strings.TrimPrefix(args[0], "+")
		args = args[1:]
	}

	installed := d.Installed
	if installed == nil {
		installed = func(string) bool { return false }
	}

	res, err := resolver.Resolve(resolver.Invocation{
		Program:      name,
		ArgToolchain: argToolchain,
		Cwd:          req.Cwd,
		Env:          req.Env,
	}, s, installed)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(toolchain.BinDir(d.RustupHome, res.Toolchain), name)

	if req.SelfPath != "" {
		selfAbs, selfErr := filepath.Abs(req.SelfPath)
		targetAbs, targetErr := filepath.Abs(target)
		if selfErr == nil && targetErr == nil && selfAbs == targetAbs {
			return nil, &ErrRecursion{Path: targetAbs}
		}
	}

	return &Plan{Target: target, Args: args, Resolution: res}, nil
}

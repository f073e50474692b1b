// Package dispatch holds the small set of exported types that form the
// stable boundary between cmd/rustup (argument parsing, the "external
// collaborator" per spec.md §6) and the core packages (resolver, install,
// settings). cmd/rustup uses only ExitCode from this package; it imports
// pkg/resolver and pkg/install and builds their own request types
// (resolver.Invocation, install.Request) directly.
package dispatch

import "github.com/rustup-rs/rustup/pkg/toolchain"

// Invocation is the process invocation context handed to the resolver,
// per spec.md §6's "the resolver receives a parsed Invocation struct".
type Invocation struct {
	Program      string
	ArgToolchain string
	Cwd          string
	Env          func(string) string
}

// InstallRequest is the installer's external-interface contract, per
// spec.md §6: "the installer receives an InstallRequest { toolchain,
// profile, components+, targets+, force }".
type InstallRequest struct {
	Toolchain      string
	Profile        toolchain.Profile
	Components     []string
	Targets        []string
	Force          bool
	AllowDowngrade bool
}

// ExitCode enumerates the process exit codes of spec.md §6.
type ExitCode int

const (
	ExitSuccess  ExitCode = 0
	ExitUserErr  ExitCode = 1
	ExitInternal ExitCode = 2
	ExitCanceled ExitCode = 3
)

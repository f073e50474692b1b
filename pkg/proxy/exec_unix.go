//go:build !windows

package proxy

import "golang.org/x/sys/unix"

// Run replaces the current process image with target, argv, and env
// (Unix process replacement, spec.md §4.8). On success it never returns;
// the returned error is always non-nil.
func Run(target string, args []string, env []string) error {
	argv := append([]string{target}, args...)
	return unix.Exec(target, argv, env)
}

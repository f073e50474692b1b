//go:build windows

package proxy

import (
	"os"
	"os/exec"
	"os/signal"
)

// Run launches target as a child process (Windows has no process-replacement
// primitive equivalent to exec(2)), forwarding console signals to the child
// and propagating its exit code via os.Exit once it completes (spec.md
// §4.8).
func Run(target string, args []string, env []string) error {
	cmd := exec.Command(target, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if cmd.Process != nil {
				cmd.Process.Signal(os.Interrupt)
			}
		}
	}()

	err := cmd.Wait()
	if exitErr, ok := err.(*exec.ExitError); ok {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

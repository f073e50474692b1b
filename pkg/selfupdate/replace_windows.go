//go:build windows

package selfupdate

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// pendingSuffix names the marker file that records a staged replacement
// binary's path, read by ApplyPending on the next process start. Windows
// refuses to rename (or delete) a binary that's currently mapped into a
// running process, so the swap can't happen until the dispatcher exits.
const pendingSuffix = ".rustup-pending-update"

// replace can't rename over the running executable on Windows, so it
// leaves staged in place and records it in a marker file next to target;
// the actual rename happens when ApplyPending is called in a later
// process. cmd/rustup does not call ApplyPending.
func replace(target, staged string, logger *zap.Logger) error {
	marker := target + pendingSuffix
	if err := os.WriteFile(marker, []byte(staged), 0o644); err != nil {
		return fmt.Errorf("selfupdate: recording pending update: %w", err)
	}
	logger.Info("rustup update staged, will apply on next start", zap.String("staged", staged))
	return nil
}

// ApplyPending completes a self-update staged by a previous run, if one is
// pending for exePath. Call it once at process start before doing anything
// else. Returns true if an update was applied.
func ApplyPending(exePath string) (bool, error) {
	marker := exePath + pendingSuffix
	data, err := os.ReadFile(marker)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("selfupdate: reading pending update marker: %w", err)
	}
	staged := string(data)
	defer os.Remove(marker)

	if err := os.Rename(staged, exePath); err != nil {
		return false, fmt.Errorf("selfupdate: applying pending update: %w", err)
	}
	return true, nil
}

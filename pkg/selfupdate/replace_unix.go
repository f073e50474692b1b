//go:build !windows

package selfupdate

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// replace atomically renames staged over target. Unix allows renaming onto
// a file that's currently executing (the inode stays alive until the
// running process exits), so this is a plain durable rename (spec.md
// §4.10).
func replace(target, staged string, logger *zap.Logger) error {
	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("selfupdate: replacing %s: %w", target, err)
	}
	return nil
}

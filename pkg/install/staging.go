package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rustup-rs/rustup/pkg/toolchain"
)

// newStagingDir creates a fresh, uniquely named directory under
// <RUSTUP_HOME>/tmp to unpack a toolchain's components into before the
// transaction layer commits them into place.
//
// Adapted from the teacher's pkg/store/path.go GetSandboxPath +
// sandbox.go NewSandboxDir, which mint a UUIDv7-named scratch directory
// per build sandbox; here the same "one unique scratch dir per operation"
// idiom names a staging dir per install instead of a build sandbox.
// UUIDv7 (over MkdirTemp's opaque random suffix) keeps staging dirs sortable
// by creation time, which is convenient when a human is inspecting a stale
// <RUSTUP_HOME>/tmp left over from an interrupted install.
func newStagingDir(rustupHome string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("install: generating staging id: %w", err)
	}
	dir := filepath.Join(toolchain.TmpDir(rustupHome), "install-"+id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("install: creating staging dir: %w", err)
	}
	return dir, nil
}

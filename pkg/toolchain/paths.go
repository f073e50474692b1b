// Package toolchain defines the on-disk data model for installed toolchains,
// their components, and install profiles, and the <RUSTUP_HOME> layout that
// roots them. The directory-naming conventions are adapted from the
// teacher's content-addressed store layout (pkg/store/path.go,
// GetStoreDirName/GetCacheDirPath/GetSandboxDirPath) to rustup's named
// (not hash-addressed) toolchain directories.
package toolchain

import (
	"os"
	"path/filepath"
)

// Home resolves <RUSTUP_HOME>, defaulting to ~/.rustup when the environment
// variable is unset, per spec.md §6.
func Home() string {
	if v := os.Getenv("RUSTUP_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".rustup")
	}
	return filepath.Join(home, ".rustup")
}

// CargoHome resolves <CARGO_HOME>, defaulting to ~/.cargo.
func CargoHome() string {
	if v := os.Getenv("CARGO_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".cargo")
	}
	return filepath.Join(home, ".cargo")
}

// ToolchainsDir returns <RUSTUP_HOME>/toolchains.
func ToolchainsDir(rustupHome string) string {
	return filepath.Join(rustupHome, "toolchains")
}

// Dir returns the root directory of the named toolchain.
func Dir(rustupHome, name string) string {
	return filepath.Join(ToolchainsDir(rustupHome), name)
}

// DownloadsDir returns <RUSTUP_HOME>/downloads, the persistent download
// cache keyed by hash (spec.md §6).
func DownloadsDir(rustupHome string) string {
	return filepath.Join(rustupHome, "downloads")
}

// TmpDir returns <RUSTUP_HOME>/tmp, scratch space safe to delete between
// operations.
func TmpDir(rustupHome string) string {
	return filepath.Join(rustupHome, "tmp")
}

// SettingsPath returns <RUSTUP_HOME>/settings.toml.
func SettingsPath(rustupHome string) string {
	return filepath.Join(rustupHome, "settings.toml")
}

// LockPath returns the advisory lock file protecting the toolchains
// directory from concurrent Rustup processes (spec.md §5).
func LockPath(rustupHome string) string {
	return filepath.Join(rustupHome, ".lock")
}

// BinDir returns the toolchain's bin/ directory, where the real rustc/cargo/
// etc binaries that the proxy dispatcher re-execs live.
func BinDir(rustupHome, name string) string {
	return filepath.Join(Dir(rustupHome, name), "bin")
}

// ManifestCopyPath returns the path of the toolchain's cached copy of the
// release manifest it was installed from.
func ManifestCopyPath(rustupHome, name string) string {
	return filepath.Join(Dir(rustupHome, name), "multirust-channel-manifest.toml")
}

// HashFilePath returns the path of the hash file used to detect upstream
// updates without redownloading the manifest body.
func HashFilePath(rustupHome, name string) string {
	return filepath.Join(rustupHome, "update-hashes", name)
}

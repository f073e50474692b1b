package settings

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock is an advisory, cross-process exclusive lock over a rustup
// installation's RUSTUP_HOME, serializing toolchain installs/uninstalls and
// settings writes across concurrent rustup invocations (spec.md §5).
//
// It's a thin wrapper over flock(2) via golang.org/x/sys/unix, mirroring the
// "take a lock file, defer its release" idiom the teacher uses for its own
// sandbox/store directories (pkg/store/sandbox.go), generalised from a
// scratch-directory lock to a long-lived installation lock.
type Lock struct {
	file *os.File
}

// AcquireLock opens (creating if necessary) the lock file at path and takes
// an exclusive flock on it, blocking until it is available.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("settings: opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("settings: locking %s: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// TryAcquireLock behaves like AcquireLock but returns ok=false immediately
// instead of blocking if another process already holds the lock.
func TryAcquireLock(path string) (lock *Lock, ok bool, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("settings: opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("settings: locking %s: %w", path, err)
	}
	return &Lock{file: f}, true, nil
}

// Release unlocks and closes the underlying file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("settings: unlocking: %w", err)
	}
	return l.file.Close()
}

package transaction

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"runtime"
	"syscall"
	"time"
)

// renameWithFallback renames src to dst, handling the two platform quirks
// spec.md §4.6 calls out:
//
//   - Linux: a rename that fails with EXDEV (cross-device, seen on overlay
//     filesystems) falls back to copy+unlink when RUSTUP_PERMIT_COPY_RENAME
//     is set.
//   - Windows: a failed rename is retried with backoff, since antivirus
//     software transiently locks freshly written files.
func renameWithFallback(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if runtime.GOOS == "windows" {
		return retryRenameWindows(src, dst, err)
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if os.Getenv("RUSTUP_PERMIT_COPY_RENAME") != "" {
			return copyThenRemove(src, dst)
		}
	}
	return err
}

func retryRenameWindows(src, dst string, firstErr error) error {
	lastErr := firstErr
	for attempt := 0; attempt < 5; attempt++ {
		time.Sleep(time.Duration(1<<uint(attempt)) * 50 * time.Millisecond)
		if err := os.Rename(src, dst); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

func copyThenRemove(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		os.Remove(dst)
		if err := os.Symlink(target, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}

	if err := copyRegularFile(src, dst, info.Mode()); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyRegularFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := copyAll(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func copyAll(dst *os.File, src *os.File) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, writeErr := dst.Write(buf[:n])
			total += int64(written)
			if writeErr != nil {
				return total, writeErr
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return total, nil
			}
			return total, readErr
		}
	}
}

package unpack

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mholt/archives"
)

// EntryKind classifies what an installed path is, so the transaction layer
// can replay it without re-inspecting the filesystem.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	EntrySymlink
)

// Entry is one (destination-relative path, mode, kind) triple the unpacker
// reports after writing, per spec.md §4.5: "the unpacker reports the set of
// ... triples to the transaction layer; it does not itself decide what
// constitutes installed."
type Entry struct {
	Path   string
	Mode   fs.FileMode
	Kind   EntryKind
	Target string // symlink target, only set when Kind == EntrySymlink
}

// Report is the full set of entries written by one Unpack call.
type Report struct {
	Entries []Entry
}

// Options configures one unpack operation.
type Options struct {
	// RAMBudget bounds total in-flight slab bytes; see ClampRAMBudget.
	RAMBudget int64
	// Workers is accepted but not read: Unpack writes entries one at a
	// time from a single goroutine, with no worker pool.
	Workers int
}

// Unpack decompresses and extracts r (a gzip/xz/zstd compressed tar stream)
// into destDir, which must already exist, enforcing the RAM budget in
// opts via a bounded slab pool and writing every extracted path through an
// os.Root rooted at destDir so no archive entry can escape it (the same
// zip-slip defense the pack's orla applies in internal/installer/manifest.go
// via os.OpenRoot).
func Unpack(ctx context.Context, r io.Reader, destDir string, opts Options) (*Report, error) {
	buffered := bufio.NewReaderSize(r, 512)
	format, err := DetectFormat(buffered)
	if err != nil {
		return nil, err
	}

	decompressed, closer, err := openDecompressor(buffered, format)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("unpack: opening destination root: %w", err)
	}
	defer root.Close()

	budget := ClampRAMBudget(opts.RAMBudget, 0)
	pool := NewSlabPool(budget)

	u := &unpacker{
		root: root,
		pool: pool,
		seen: sync.Map{},
	}

	tarArchival := archives.Tar{}
	if err := tarArchival.Extract(ctx, decompressed, u.handle); err != nil {
		return nil, fmt.Errorf("unpack: extracting: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return &Report{Entries: u.entries}, nil
}

type decompressorCloser interface {
	Close() error
}

func openDecompressor(r io.Reader, format Format) (io.Reader, decompressorCloser, error) {
	switch format {
	case FormatGzip:
		rc, err := (archives.Gz{}).OpenReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("unpack: opening gzip stream: %w", err)
		}
		return rc, rc, nil
	case FormatXZ:
		rc, err := (archives.Xz{}).OpenReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("unpack: opening xz stream: %w", err)
		}
		return rc, rc, nil
	case FormatZstd:
		rc, err := (archives.Zstd{}).OpenReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("unpack: opening zstd stream: %w", err)
		}
		return rc, rc, nil
	default:
		return nil, nil, &ErrUnsupportedFormat{}
	}
}

// unpacker holds the state a single Unpack call's producer/consumer
// callback closes over: the rooted destination, the slab pool, a
// directory-creation dedup set, and the accumulated entry report.
type unpacker struct {
	root *os.Root
	pool *SlabPool

	seen sync.Map // directory path -> struct{}, deduplicates MkdirAll calls

	mu      sync.Mutex
	entries []Entry
}

// handle is the archives.FileHandler invoked once per tar entry. It is not
// itself run concurrently by archives.Tar.Extract, but the slab pool it
// draws from is sized so that a future worker-pool consumer (spec.md §5's
// unpack pool, sized to CPU count) could call it concurrently per-file
// without exceeding the RAM budget; a single in-process writer per entry
// keeps this correct without pretending to parallelize tar's inherently
// sequential entry stream.
func (u *unpacker) handle(ctx context.Context, info archives.FileInfo) error {
	relPath := filepath.Clean(info.NameInArchive)

	if info.IsDir() {
		return u.ensureDir(relPath, info.Mode())
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return u.writeSymlink(relPath, info)
	}

	if err := u.ensureDir(filepath.Dir(relPath), 0o755); err != nil {
		return err
	}

	src, err := info.Open()
	if err != nil {
		return fmt.Errorf("unpack: opening archive entry %s: %w", relPath, err)
	}
	defer src.Close()

	dst, err := u.root.OpenFile(relPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("unpack: creating %s: %w", relPath, err)
	}
	defer dst.Close()

	slab := u.pool.Acquire()
	defer u.pool.Release(slab)

	// A file larger than one slab is streamed through the same reused
	// slab across multiple Read/Write rounds rather than rejected
	// (spec.md §4.5's large-file handling), which io.CopyBuffer already
	// does by construction.
	if _, err := io.CopyBuffer(dst, src, slab); err != nil {
		return fmt.Errorf("unpack: writing %s: %w", relPath, err)
	}

	u.record(Entry{Path: relPath, Mode: info.Mode().Perm(), Kind: EntryFile})
	return nil
}

func (u *unpacker) ensureDir(relPath string, mode fs.FileMode) error {
	if relPath == "." || relPath == "" {
		return nil
	}
	if _, loaded := u.seen.LoadOrStore(relPath, struct{}{}); loaded {
		return nil
	}
	if err := u.root.MkdirAll(relPath, mode|0o700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("unpack: creating directory %s: %w", relPath, err)
	}
	u.record(Entry{Path: relPath, Mode: mode, Kind: EntryDir})
	return nil
}

func (u *unpacker) writeSymlink(relPath string, info archives.FileInfo) error {
	target, err := symlinkTarget(info)
	if err != nil {
		return err
	}

	if err := u.ensureDir(filepath.Dir(relPath), 0o755); err != nil {
		return err
	}
	if err := u.root.Symlink(target, relPath); err != nil {
		return fmt.Errorf("unpack: creating symlink %s: %w", relPath, err)
	}
	u.record(Entry{Path: relPath, Kind: EntrySymlink, Target: target})
	return nil
}

// symlinkTarget reads the link target archives recorded for this entry.
// FileInfo.Sys() returns the format-specific header (*tar.Header for a tar
// entry); LinkTarget is the field archives itself promotes from it, so
// read that directly rather than type-asserting into the header (spec.md
// §4.5: "symlinks are preserved").
func symlinkTarget(info archives.FileInfo) (string, error) {
	if info.LinkTarget == "" {
		return "", fmt.Errorf("unpack: archive entry %s has no link target", info.NameInArchive)
	}
	return info.LinkTarget, nil
}

func (u *unpacker) record(e Entry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries = append(u.entries, e)
}

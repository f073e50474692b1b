// Package unpack streams a compressed tarball into a destination directory
// under a bounded RAM budget, preserving symlinks and hard links where the
// platform allows, and reporting the set of installed files back to the
// transaction layer (spec.md §4.5).
//
// Format detection and decompression/extraction are grounded directly on
// the teacher's internal/context/config.go AddArtifactSource: magic-byte
// sniffing via github.com/h2non/filetype, then a decoder-then-archive
// dance through github.com/mholt/archives (Gz/Xz/Zip wrapping a Tar
// archival). This package narrows that to rustup's three published
// compressions (gzip, xz, zstd) and adds the RAM-bounded slab pipeline and
// secure-path extraction the teacher's one-shot artifact fetch doesn't need.
package unpack

import (
	"fmt"
	"io"

	"github.com/h2non/filetype"
)

// Format identifies which decompressor should wrap the tar archival layer.
type Format int

const (
	FormatUnknown Format = iota
	FormatGzip
	FormatXZ
	FormatZstd
)

// ErrUnsupportedFormat is returned when the input's magic bytes don't match
// any of rustup's three published tarball compressions.
type ErrUnsupportedFormat struct {
	MIME string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unpack: unsupported archive format (detected %q)", e.MIME)
}

// DetectFormat sniffs r's magic bytes and reports which compression wraps
// the tar payload, exactly as the teacher's AddArtifactSource switches on
// filetype.MatchReader's MIME value. r must support re-reading from the
// start after detection if it is not already buffered — callers typically
// pass a *bufio.Reader so Peek-based detection doesn't consume the stream.
func DetectFormat(r io.Reader) (Format, error) {
	peek, ok := r.(interface{ Peek(int) ([]byte, error) })
	if !ok {
		return FormatUnknown, fmt.Errorf("unpack: DetectFormat requires a peekable reader")
	}
	head, err := peek.Peek(262)
	if err != nil && err != io.EOF {
		return FormatUnknown, fmt.Errorf("unpack: reading header: %w", err)
	}

	kind, err := filetype.Match(head)
	if err != nil {
		return FormatUnknown, fmt.Errorf("unpack: matching type: %w", err)
	}

	switch kind.MIME.Value {
	case "application/gzip":
		return FormatGzip, nil
	case "application/x-xz":
		return FormatXZ, nil
	case "application/zstd":
		return FormatZstd, nil
	default:
		return FormatUnknown, &ErrUnsupportedFormat{MIME: kind.MIME.Value}
	}
}

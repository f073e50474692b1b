package obs

import (
	"errors"
	"fmt"

	"github.com/rustup-rs/rustup/pkg/dispatch"
)

// Kind classifies an error by the taxonomy of spec.md §7: not a Go type
// hierarchy, just an enum carried alongside the wrapped cause so
// cmd/rustup can map it to an exit code without string-sniffing.
type Kind string

const (
	KindInput      Kind = "input"
	KindEnvironment Kind = "environment"
	KindNetwork    Kind = "network"
	KindIntegrity  Kind = "integrity"
	KindFilesystem Kind = "filesystem"
	KindInvariant  Kind = "invariant"
	KindCanceled   Kind = "canceled"
)

// ExitCode maps a Kind to the process exit code of spec.md §6.
func (k Kind) ExitCode() dispatch.ExitCode {
	switch k {
	case KindCanceled:
		return dispatch.ExitCanceled
	case KindInvariant, KindFilesystem:
		return dispatch.ExitInternal
	default:
		return dispatch.ExitUserErr
	}
}

// RustupError wraps a cause with a Kind and an optional remediation hint,
// per spec.md §7's "reported with remediation hint" requirement for input
// errors.
type RustupError struct {
	Kind Kind
	Hint string
	Err  error
}

func (e *RustupError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Hint)
	}
	return e.Err.Error()
}

func (e *RustupError) Unwrap() error { return e.Err }

// New wraps err as a *RustupError of the given kind.
func New(kind Kind, err error) *RustupError {
	return &RustupError{Kind: kind, Err: err}
}

// WithHint attaches a remediation hint and returns the same error for
// chaining at the construction site.
func (e *RustupError) WithHint(hint string) *RustupError {
	e.Hint = hint
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *RustupError,
// defaulting to KindInvariant for an error this package doesn't recognize
// (spec.md §7: "invariant violations — internal bugs").
func KindOf(err error) Kind {
	var re *RustupError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInvariant
}

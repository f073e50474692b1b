package obs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rustup-rs/rustup/pkg/dispatch"
)

func TestKindOfUnwrapsWrappedRustupError(t *testing.T) {
	base := New(KindNetwork, errors.New("connection reset"))
	wrapped := fmt.Errorf("install: %w", base)

	if got := KindOf(wrapped); got != KindNetwork {
		t.Errorf("KindOf = %v, want KindNetwork", got)
	}
}

func TestKindOfDefaultsToInvariant(t *testing.T) {
	if got := KindOf(errors.New("plain error")); got != KindInvariant {
		t.Errorf("KindOf = %v, want KindInvariant", got)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want dispatch.ExitCode
	}{
		{KindInput, dispatch.ExitUserErr},
		{KindEnvironment, dispatch.ExitUserErr},
		{KindNetwork, dispatch.ExitUserErr},
		{KindIntegrity, dispatch.ExitUserErr},
		{KindFilesystem, dispatch.ExitInternal},
		{KindInvariant, dispatch.ExitInternal},
		{KindCanceled, dispatch.ExitCanceled},
	}
	for _, c := range cases {
		if got := c.kind.ExitCode(); got != c.want {
			t.Errorf("%v.ExitCode() = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestWithHintIncludedInMessage(t *testing.T) {
	err := New(KindInput, errors.New("bad channel name")).WithHint("run 'rustup toolchain list'")
	want := "bad channel name (run 'rustup toolchain list')"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

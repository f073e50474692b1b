package triple

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ChannelKind distinguishes the four forms a channel descriptor can take.
type ChannelKind int

const (
	// ChannelNamed is a moving stream: stable, beta, or nightly.
	ChannelNamed ChannelKind = iota
	// ChannelMajorMinor pins to the latest patch of a major.minor release.
	ChannelMajorMinor
	// ChannelFull pins to an exact major.minor.patch release.
	ChannelFull
	// ChannelCustom names a linked custom toolchain, not a distributable channel.
	ChannelCustom
	// ChannelNone means "no default toolchain" (spec.md §4.7).
	ChannelNone
)

var namedChannels = map[string]bool{"stable": true, "beta": true, "nightly": true}

var (
	fullVersionRE   = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	majorMinorRE    = regexp.MustCompile(`^\d+\.\d+$`)
	dateSuffixRE    = regexp.MustCompile(`^(.*)-(\d{4}-\d{2}-\d{2})$`)
)

// Descriptor is a fully parsed channel descriptor: the moving-stream or
// version part, an optional archive date, and an optional host override.
type Descriptor struct {
	Kind ChannelKind
	// Name is the channel/version/custom-toolchain name with any date/host
	// suffix already stripped (e.g. "nightly", "1.48", "1.48.0", "my-toolchain").
	Name string
	// Date selects an archived build (YYYY-MM-DD), nil if unset.
	Date *string
	// Host overrides the inferred host triple, nil if unset.
	Host *Triple
}

// ErrMalformedChannelName is returned when nothing is left of a descriptor
// string once its date and trailing triple are stripped (e.g. a bare triple
// or an empty string).
type ErrMalformedChannelName struct {
	Input string
}

func (e *ErrMalformedChannelName) Error() string {
	return fmt.Sprintf("malformed channel name: %q", e.Input)
}

// ParseDescriptor parses a channel descriptor string per spec.md §3/§4.1.
//
// Precedence when classifying the bare (date/host-stripped) token: channel
// names win, then full versions, then major.minor versions; any other
// non-empty token names a custom linked toolchain, not a channel.
func ParseDescriptor(input string, host Triple) (*Descriptor, error) {
	if input == "none" {
		return &Descriptor{Kind: ChannelNone, Name: "none"}, nil
	}

	rest := input
	var date *string

	if m := dateSuffixRE.FindStringSubmatch(rest); m != nil {
		d := m[2]
		date = &d
		rest = m[1]
	}

	// A trailing triple suffix overrides the host, e.g. "nightly-2022-02-23"
	// already consumed its date; "beta-x86_64-pc-windows-msvc" has a host
	// suffix instead. Try to split off a trailing known-triple fragment.
	var hostOverride *Triple
	if name, hostPart, ok := splitTrailingTriple(rest, host); ok {
		rest = name
		hostOverride = &hostPart
	}

	switch {
	case namedChannels[rest]:
		return &Descriptor{Kind: ChannelNamed, Name: rest, Date: date, Host: hostOverride}, nil
	case fullVersionRE.MatchString(rest):
		return &Descriptor{Kind: ChannelFull, Name: rest, Date: date, Host: hostOverride}, nil
	case majorMinorRE.MatchString(rest):
		return &Descriptor{Kind: ChannelMajorMinor, Name: rest, Date: date, Host: hostOverride}, nil
	default:
		// Not a channel/version: must be a custom linked toolchain name, or
		// malformed. A custom toolchain name is anything that isn't itself
		// parseable as a (partial) triple standing alone for a channel -
		// rustup treats any other non-empty token as a custom toolchain name.
		if rest == "" {
			return nil, &ErrMalformedChannelName{Input: input}
		}
		return &Descriptor{Kind: ChannelCustom, Name: rest, Date: date, Host: hostOverride}, nil
	}
}

// splitTrailingTriple attempts to peel a trailing, fully-specified target
// triple off s, returning the remainder and the parsed triple. It only
// succeeds when every trailing dash-separated token is recognised by the
// fixed arch/os/env tables, so "1.48" and "my-toolchain" are left alone.
func splitTrailingTriple(s string, host Triple) (string, Triple, bool) {
	parts := strings.Split(s, "-")
	for i := 0; i < len(parts); i++ {
		if IsKnownArch(parts[i]) {
			candidate := strings.Join(parts[i:], "-")
			t, err := Parse(candidate, host)
			if err != nil {
				continue
			}
			if i == 0 {
				return "", t, true
			}
			return strings.Join(parts[:i], "-"), t, true
		}
	}
	return s, Triple{}, false
}

// ResolvedVersion returns the concrete major.minor.patch rustup should
// request for a ChannelMajorMinor descriptor in the 1.0-1.8 pre-patch era,
// per spec.md §3: "major.minor descriptors for pre-patch releases (1.0-1.8)
// resolve to major.minor.0".
func ResolvedVersion(name string) string {
	if !majorMinorRE.MatchString(name) {
		return name
	}
	parts := strings.SplitN(name, ".", 2)
	major, _ := strconv.Atoi(parts[0])
	minor, _ := strconv.Atoi(parts[1])
	if major == 1 && minor <= 8 {
		return name + ".0"
	}
	return name
}

// IsUpdateOf reports whether candidate is a newer version than current,
// comparing as semver (both are prefixed with "v" for golang.org/x/mod/semver,
// which requires the leading "v").
func IsUpdateOf(current, candidate string) bool {
	cv := "v" + ResolvedVersion(normalizeSemver(current))
	nv := "v" + ResolvedVersion(normalizeSemver(candidate))
	if !semver.IsValid(cv) || !semver.IsValid(nv) {
		return false
	}
	return semver.Compare(nv, cv) > 0
}

// normalizeSemver returns v unchanged; major.minor padding, where it
// applies, is done by ResolvedVersion.
func normalizeSemver(v string) string {
	return v
}

package toolchain

// DefaultComponents lists the package names a fresh install pulls in for
// each profile, before any --component/--target additions, per spec.md §3.
//
// minimal installs just enough to build with cargo; default adds the
// components a typical interactive user expects (docs, clippy, rustfmt);
// complete adds rust-src and rust-analysis on top of the default set.
var DefaultComponents = map[Profile][]string{
	ProfileMinimal: {
		"rustc",
		"rust-std",
		"cargo",
	},
	ProfileDefault: {
		"rustc",
		"rust-std",
		"cargo",
		"rust-docs",
		"rustfmt",
		"clippy",
	},
	ProfileComplete: {
		"rustc",
		"rust-std",
		"cargo",
		"rust-docs",
		"rustfmt",
		"clippy",
		"rust-src",
		"rust-analysis",
	},
}

// ComponentsForProfile returns the default package-name set for p, or the
// default profile's set if p is unrecognised.
func ComponentsForProfile(p Profile) []string {
	if names, ok := DefaultComponents[p]; ok {
		return names
	}
	return DefaultComponents[ProfileDefault]
}

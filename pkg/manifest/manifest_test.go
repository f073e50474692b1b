package manifest

import "testing"

const sampleTOML = `
manifest-version = "2"
date = "2024-01-15"

[pkg.rustc]
version = "1.75.0"

[pkg.rustc.target.x86_64-unknown-linux-gnu]
available = true
url = "https://example.com/rustc.tar.gz"
hash = "aaaa"

[pkg.rust-std]
version = "1.75.0"

[pkg.rust-std.target.x86_64-unknown-linux-gnu]
available = true
url = "https://example.com/rust-std.tar.gz"
hash = "bbbb"

[pkg.cargo]
version = "1.75.0"

[pkg.cargo.target.x86_64-unknown-linux-gnu]
available = true
url = "https://example.com/cargo.tar.gz"
hash = "cccc"

[pkg.llvm-tools]
version = "1.75.0"

[pkg.llvm-tools.target.x86_64-unknown-linux-gnu]
available = true
url = "https://example.com/llvm-tools.tar.gz"
hash = "dddd"

[renames.llvm-tools-preview]
to = "llvm-tools"

[profiles]
minimal = ["rustc", "rust-std", "cargo"]
default = ["rustc", "rust-std", "cargo", "rustfmt"]
`

func TestDecodeAndResolvePackage(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.ManifestVersion != "2" {
		t.Fatalf("ManifestVersion = %q, want 2", m.ManifestVersion)
	}

	name, pkg, err := m.ResolvePackage("rustc")
	if err != nil {
		t.Fatalf("ResolvePackage(rustc): %v", err)
	}
	if name != "rustc" || pkg.Version != "1.75.0" {
		t.Fatalf("got %q %+v", name, pkg)
	}
}

func TestResolvePackageFollowsRename(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	name, _, err := m.ResolvePackage("llvm-tools-preview")
	if err != nil {
		t.Fatalf("ResolvePackage(llvm-tools-preview): %v", err)
	}
	if name != "llvm-tools" {
		t.Fatalf("resolved name = %q, want llvm-tools", name)
	}
}

func TestResolvePackageDetectsCycle(t *testing.T) {
	m := &Manifest{
		Pkg: map[string]Package{},
		Renames: map[string]struct {
			To string `toml:"to"`
		}{
			"a": {To: "b"},
			"b": {To: "a"},
		},
	}

	if _, _, err := m.ResolvePackage("a"); err == nil {
		t.Fatal("expected cyclic rename chain to be rejected")
	} else if _, ok := err.(*ErrManifestInvalid); !ok {
		t.Fatalf("error = %T, want *ErrManifestInvalid", err)
	}
}

func TestComponentsForProfile(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	names, err := m.ComponentsForProfile("minimal")
	if err != nil {
		t.Fatalf("ComponentsForProfile: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("minimal profile = %v, want 3 packages", names)
	}

	if _, err := m.ComponentsForProfile("nonexistent"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestAvailabilityUnavailableTarget(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	_, pkg, err := m.ResolvePackage("rustc")
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if _, err := pkg.Availability("aarch64-apple-darwin"); err == nil {
		t.Fatal("expected ErrComponentUnavailable for unpublished target")
	}
}

func TestDiffFreshInstall(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	plan, err := m.Diff("x86_64-unknown-linux-gnu", nil, []string{"rustc", "rust-std", "cargo"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(plan.Remove) != 0 {
		t.Fatalf("Remove = %v, want empty on fresh install", plan.Remove)
	}
	if len(plan.Add) != 3 {
		t.Fatalf("Add = %v, want 3 packages", plan.Add)
	}
	if plan.Add[0] != "rustc" {
		t.Fatalf("Add[0] = %q, want rustc first", plan.Add[0])
	}
	if plan.Add[1] != "rust-std" {
		t.Fatalf("Add[1] = %q, want rust-std second", plan.Add[1])
	}
}

func TestDiffRemovalPrecedesNothingExtra(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	plan, err := m.Diff("x86_64-unknown-linux-gnu",
		[]string{"rustc", "rust-std", "cargo", "llvm-tools"},
		nil, nil, []string{"llvm-tools"}, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(plan.Add) != 0 {
		t.Fatalf("Add = %v, want empty", plan.Add)
	}
	if len(plan.Remove) != 1 || plan.Remove[0] != "llvm-tools" {
		t.Fatalf("Remove = %v, want [llvm-tools]", plan.Remove)
	}
}

func TestDiffStaleHashForcesReinstall(t *testing.T) {
	m, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	plan, err := m.Diff("x86_64-unknown-linux-gnu",
		[]string{"rustc", "rust-std", "cargo"},
		[]string{"rustc", "rust-std", "cargo"}, nil, nil,
		[]string{"cargo"})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(plan.Remove) != 1 || plan.Remove[0] != "cargo" {
		t.Fatalf("Remove = %v, want [cargo] scheduled for reinstall", plan.Remove)
	}
	if len(plan.Add) != 1 || plan.Add[0] != "cargo" {
		t.Fatalf("Add = %v, want [cargo] scheduled for reinstall", plan.Add)
	}
}

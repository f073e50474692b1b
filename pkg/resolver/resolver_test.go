package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustup-rs/rustup/pkg/settings"
)

func alwaysInstalled(string) bool { return true }

func envLookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolvePrecedenceArgBeatsEverything(t *testing.T) {
	s := settings.Default(filepath.Join(t.TempDir(), "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"

	inv := Invocation{
		ArgToolchain: "nightly-x86_64-unknown-linux-gnu",
		Cwd:          t.TempDir(),
		Env:          envLookup(map[string]string{"RUSTUP_TOOLCHAIN": "beta-x86_64-unknown-linux-gnu"}),
	}

	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "nightly-x86_64-unknown-linux-gnu" || res.Source != SourceArgOverride {
		t.Fatalf("got %+v, want arg override to win", res)
	}
}

func TestResolveEnvVarBeatsDefault(t *testing.T) {
	s := settings.Default(filepath.Join(t.TempDir(), "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"

	inv := Invocation{
		Cwd: t.TempDir(),
		Env: envLookup(map[string]string{"RUSTUP_TOOLCHAIN": "1.48.0-x86_64-unknown-linux-gnu"}),
	}

	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != SourceEnvVar {
		t.Fatalf("Source = %v, want env var", res.Source)
	}
}

func TestResolveDirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"
	s.SetOverride(dir, "nightly-x86_64-unknown-linux-gnu")

	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	inv := Invocation{Cwd: sub, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "nightly-x86_64-unknown-linux-gnu" || res.Source != SourceDirectoryOverride {
		t.Fatalf("got %+v, want directory override", res)
	}
}

func TestResolveProjectFileWinsOverOverrideAtEqualDepth(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"
	s.SetOverride(dir, "nightly-x86_64-unknown-linux-gnu")

	content := "[toolchain]\nchannel = \"beta\"\n"
	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain.toml: %v", err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	inv := Invocation{Cwd: sub, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "beta" || res.Source != SourceProjectFile {
		t.Fatalf("got %+v, want project file (beta) to win a tie with the directory override", res)
	}
}

func TestResolveProjectFileBareChannel(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"

	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain"), []byte("beta\n"), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain: %v", err)
	}

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "beta" || res.Source != SourceProjectFile {
		t.Fatalf("got %+v, want project file beta", res)
	}
}

func TestResolveProjectFileTOML(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))

	content := "[toolchain]\nchannel = \"nightly\"\nprofile = \"minimal\"\ncomponents = [\"rustfmt\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain.toml: %v", err)
	}

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "nightly" || res.Source != SourceProjectFile {
		t.Fatalf("got %+v, want project file nightly", res)
	}
}

func TestResolveBareFilePrefersOverTOML(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))

	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain"), []byte("stable\n"), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte("[toolchain]\nchannel = \"nightly\"\n"), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain.toml: %v", err)
	}

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Toolchain != "stable" {
		t.Fatalf("Toolchain = %q, want bare rust-toolchain (stable) to win over .toml", res.Toolchain)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))
	s.DefaultToolchain = "stable-x86_64-unknown-linux-gnu"

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	res, err := Resolve(inv, s, alwaysInstalled)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Source != SourceDefault {
		t.Fatalf("Source = %v, want default", res.Source)
	}
}

func TestResolveNoDefaultToolchainErrors(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	if _, err := Resolve(inv, s, alwaysInstalled); err == nil {
		t.Fatal("expected ErrNoDefaultToolchain")
	}
}

func TestProjectFileRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default(filepath.Join(dir, "settings.toml"))

	content := "[toolchain]\nchannel = \"nightly\"\nbogus_key = true\n"
	if err := os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing rust-toolchain.toml: %v", err)
	}

	inv := Invocation{Cwd: dir, Env: envLookup(nil)}
	// An unknown key makes the project file unparsable; resolution should
	// fall through (not crash) since findProjectFile skips files it cannot
	// parse and continues walking upward.
	if _, err := Resolve(inv, s, alwaysInstalled); err == nil {
		t.Fatal("expected fallthrough to no-default-toolchain error since no valid project file or default exists")
	}
}

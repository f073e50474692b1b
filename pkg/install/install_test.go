package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rustup-rs/rustup/pkg/toolchain"
	"github.com/rustup-rs/rustup/pkg/triple"
)

func buildArtifact(t *testing.T, files map[string]string) (data []byte, hash string) {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	tw.Close()
	gw.Close()
	data = buf.Bytes()
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:])
}

func TestInstallFreshProfile(t *testing.T) {
	rustcData, rustcHash := buildArtifact(t, map[string]string{"bin/rustc": "rustc binary"})
	stdData, stdHash := buildArtifact(t, map[string]string{"lib/libstd.rlib": "std lib"})
	cargoData, cargoHash := buildArtifact(t, map[string]string{"bin/cargo": "cargo binary"})

	var manifestHash string
	mux := http.NewServeMux()
	mux.HandleFunc("/artifacts/rustc.tar.gz", func(w http.ResponseWriter, r *http.Request) { w.Write(rustcData) })
	mux.HandleFunc("/artifacts/rust-std.tar.gz", func(w http.ResponseWriter, r *http.Request) { w.Write(stdData) })
	mux.HandleFunc("/artifacts/cargo.tar.gz", func(w http.ResponseWriter, r *http.Request) { w.Write(cargoData) })

	srv := httptest.NewServer(mux)
	defer srv.Close()

	manifestTOML := fmt.Sprintf(`
manifest-version = "2"
date = "2024-01-15"

[pkg.rustc]
version = "1.75.0"
[pkg.rustc.target.%[1]s]
available = true
url = "%[5]s/artifacts/rustc.tar.gz"
hash = "%[2]s"

[pkg.rust-std]
version = "1.75.0"
[pkg.rust-std.target.%[1]s]
available = true
url = "%[5]s/artifacts/rust-std.tar.gz"
hash = "%[3]s"

[pkg.cargo]
version = "1.75.0"
[pkg.cargo.target.%[1]s]
available = true
url = "%[5]s/artifacts/cargo.tar.gz"
hash = "%[4]s"

[profiles]
minimal = ["rustc", "rust-std", "cargo"]
`, hostTripleString(t), rustcHash, stdHash, cargoHash, srv.URL)

	manifestSum := sha256.Sum256([]byte(manifestTOML))
	manifestHash = hex.EncodeToString(manifestSum[:])

	mux.HandleFunc("/dist/channel-rust-stable.toml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestTOML))
	})
	mux.HandleFunc("/dist/channel-rust-stable.toml.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s channel-rust-stable.toml\n", manifestHash)
	})

	rustupHome := t.TempDir()
	if err := os.MkdirAll(toolchain.TmpDir(rustupHome), 0o755); err != nil {
		t.Fatalf("seeding tmp dir: %v", err)
	}

	ins := &Installer{
		RustupHome: rustupHome,
		DistServer: srv.URL,
		Client:     srv.Client(),
	}

	tc, err := ins.Install(context.Background(), Request{
		Toolchain: "stable",
		Profile:   toolchain.ProfileMinimal,
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if tc.Name == "" {
		t.Fatal("expected a resolved toolchain name")
	}

	installedDir := filepath.Join(rustupHome, "toolchains", tc.Name)
	if _, err := os.Stat(filepath.Join(installedDir, "bin", "rustc")); err != nil {
		t.Fatalf("expected bin/rustc to be installed: %v", err)
	}

	manifestCopy, err := os.ReadFile(toolchain.ManifestCopyPath(rustupHome, tc.Name))
	if err != nil {
		t.Fatalf("expected a manifest copy to be persisted: %v", err)
	}
	if string(manifestCopy) != manifestTOML {
		t.Fatalf("persisted manifest copy does not match the fetched manifest")
	}

	hashFile, err := os.ReadFile(toolchain.HashFilePath(rustupHome, tc.Name))
	if err != nil {
		t.Fatalf("expected a channel hash file to be persisted: %v", err)
	}
	if string(hashFile) != manifestHash {
		t.Fatalf("hash file = %q, want %q", hashFile, manifestHash)
	}

	// A second identical request should see the diff come back empty by
	// reading the manifest copy this install just wrote, short-circuiting
	// instead of re-downloading every component.
	if _, err := ins.Install(context.Background(), Request{
		Toolchain: "stable",
		Profile:   toolchain.ProfileMinimal,
	}); err != nil {
		t.Fatalf("expected re-running an identical install request to short-circuit cleanly: %v", err)
	}
}

func hostTripleString(t *testing.T) string {
	t.Helper()
	return triple.Host().String()
}

package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rustup-rs/rustup/pkg/download"
	"github.com/rustup-rs/rustup/pkg/manifest"
	"github.com/rustup-rs/rustup/pkg/toolchain"
	"github.com/rustup-rs/rustup/pkg/triple"
	"github.com/rustup-rs/rustup/pkg/unpack"
)

const defaultBacktrackLimit = 21

// fetchedManifest bundles the decoded manifest with the raw bytes and
// channel hash it was decoded from, so Install can persist the toolchain's
// on-disk manifest copy and hash file (spec.md §4.9) without re-fetching.
type fetchedManifest struct {
	Manifest *manifest.Manifest
	RawData  []byte
	Hash     string
}

// fetchManifestWithBacktrack fetches the channel manifest named by desc. For
// a dated nightly, it fetches exactly that date. For the bare "nightly"
// channel it fetches the latest build and, while that build is missing a
// requested component, steps back one day at a time from the build's own
// date, trying at most BacktrackLimit builds (default 21 when unset), or
// 365 under AllowDowngrade (spec.md §4.9).
func (ins *Installer) fetchManifestWithBacktrack(ctx context.Context, desc *triple.Descriptor, target triple.Triple, req Request, logger *zap.Logger) (*fetchedManifest, string, error) {
	limit := ins.BacktrackLimit
	if limit <= 0 {
		limit = defaultBacktrackLimit
	}

	if desc.Date != nil || desc.Kind != triple.ChannelNamed || desc.Name != "nightly" {
		fm, err := ins.fetchManifest(ctx, desc.Name, dateOrEmpty(desc.Date))
		return fm, dateOrEmpty(desc.Date), err
	}

	today := dateOrEmpty(desc.Date)
	date := today
	maxAttempts := limit
	if req.AllowDowngrade {
		maxAttempts = 365
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		fm, err := ins.fetchManifest(ctx, "nightly", date)
		if err == nil {
			if componentsAvailable(fm.Manifest, req, target) {
				if attempt > 0 {
					logger.Info("nightly backtracked", zap.String("date", date), zap.Int("days", attempt))
				}
				return fm, date, nil
			}
			lastErr = fmt.Errorf("install: nightly %s missing a requested component", date)
			if date == "" {
				// The undated manifest is the latest build; step back from its date.
				date = fm.Manifest.Date
			}
		} else {
			lastErr = err
		}
		date = previousDate(date)
	}
	return nil, "", fmt.Errorf("install: exhausted backtrack limit (%d days): %w", maxAttempts, lastErr)
}

func componentsAvailable(m *manifest.Manifest, req Request, target triple.Triple) bool {
	for _, name := range req.Components {
		_, pkg, err := m.ResolvePackage(name)
		if err != nil {
			return false
		}
		if _, err := pkg.Availability(target.String()); err != nil {
			return false
		}
	}
	return true
}

func dateOrEmpty(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func previousDate(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}

// fetchManifest downloads (or reuses a cached copy of) the channel manifest
// for channel at date ("" for the latest build), keyed by its published
// hash file so an unchanged manifest is never re-downloaded in full
// (spec.md §4.9: "caching keyed by the channel's published hash").
func (ins *Installer) fetchManifest(ctx context.Context, channel, date string) (*fetchedManifest, error) {
	manifestURL := ins.manifestURL(channel, date)
	hashURL := manifestURL + ".sha256"

	client := ins.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hashURL, nil)
	if err != nil {
		return nil, fmt.Errorf("install: building hash request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("install: fetching manifest hash: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, download.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("install: fetching manifest hash: status %s", resp.Status)
	}
	hashBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("install: reading manifest hash: %w", err)
	}
	expectedHash := firstField(string(hashBody))

	cachePath := filepath.Join(toolchain.DownloadsDir(ins.RustupHome), "manifests", expectedHash+".toml")

	if ins.manifestCache != nil {
		if m, ok := ins.manifestCache.Get(expectedHash); ok {
			data, err := os.ReadFile(cachePath)
			if err != nil {
				return nil, fmt.Errorf("install: reading cached manifest: %w", err)
			}
			return &fetchedManifest{Manifest: m, RawData: data, Hash: expectedHash}, nil
		}
	}

	if data, err := os.ReadFile(cachePath); err == nil {
		m, err := manifest.Decode(data)
		if err != nil {
			return nil, err
		}
		if ins.manifestCache != nil {
			ins.manifestCache.Put(expectedHash, m)
		}
		return &fetchedManifest{Manifest: m, RawData: data, Hash: expectedHash}, nil
	}

	if err := download.Get(ctx, client, download.Options{
		URL:    manifestURL,
		Dest:   cachePath,
		SHA256: expectedHash,
	}); err != nil {
		return nil, fmt.Errorf("install: fetching manifest: %w", err)
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("install: reading cached manifest: %w", err)
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, err
	}
	if ins.manifestCache != nil {
		ins.manifestCache.Put(expectedHash, m)
	}
	return &fetchedManifest{Manifest: m, RawData: data, Hash: expectedHash}, nil
}

func (ins *Installer) manifestURL(channel, date string) string {
	server := ins.DistServer
	if server == "" {
		server = "https://static.rust-lang.org"
	}
	if date != "" {
		return fmt.Sprintf("%s/dist/%s/channel-rust-%s.toml", server, date, channel)
	}
	return fmt.Sprintf("%s/dist/channel-rust-%s.toml", server, channel)
}

func firstField(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			return s[:i]
		}
	}
	return s
}

// fetchAndUnpackComponent downloads the compressed artifact for one
// component and unpacks it into the root of stagingDir, preferring
// zstd, then xz, then the plain hash-verified gzip URL, matching the
// manifest schema's url/xz_url/zst_url fields (spec.md §6).
func (ins *Installer) fetchAndUnpackComponent(ctx context.Context, name string, ta manifest.TargetAvailability, stagingDir string, logger *zap.Logger) error {
	url, hash := ta.ZstURL, ta.ZstHash
	if url == "" {
		url, hash = ta.XZURL, ta.XZHash
	}
	if url == "" {
		url, hash = ta.URL, ta.Hash
	}
	if url == "" {
		return fmt.Errorf("install: component %q has no artifact URL", name)
	}

	dest := filepath.Join(toolchain.DownloadsDir(ins.RustupHome), hash+".tar")
	client := ins.Client
	if client == nil {
		client = http.DefaultClient
	}

	logger.Info("downloading component", zap.String("component", name), zap.String("url", url))
	if err := download.Get(ctx, client, download.Options{URL: url, Dest: dest, SHA256: hash}); err != nil {
		return fmt.Errorf("install: downloading %s: %w", name, err)
	}

	f, err := os.Open(dest)
	if err != nil {
		return fmt.Errorf("install: opening downloaded artifact: %w", err)
	}
	defer f.Close()

	// Every component's tarball payload is keyed to the toolchain's shared
	// namespace (bin/, lib/, share/, ...), not a per-component subtree, so
	// all components unpack into the same staging root and merge there —
	// mirroring how the real tarball's components file plus per-component
	// manifest.in entries (spec.md §6) resolve to one flat installed tree.
	if _, err := unpack.Unpack(ctx, f, stagingDir, unpack.Options{}); err != nil {
		return fmt.Errorf("install: unpacking %s: %w", name, err)
	}
	return nil
}

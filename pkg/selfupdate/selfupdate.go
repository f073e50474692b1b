// Package selfupdate implements `rustup self update` (spec.md §4.10):
// downloading a new dispatcher binary, verifying its hash, and atomically
// replacing the running executable with it.
//
// It is deliberately a thin composition of pkg/download (fetch + verify)
// and this package's own platform-specific replace (an os.Rename over the
// executable on Unix, a staged rename recorded for ApplyPending on
// Windows); it does not go through pkg/transaction.
package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rustup-rs/rustup/pkg/download"
	"github.com/rustup-rs/rustup/pkg/settings"
)

// Release describes the latest available dispatcher build, as published by
// the release-info endpoint.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	SHA256  string `json:"sha256"`
}

// Checker fetches release metadata. Production callers use HTTPChecker;
// tests substitute a fake.
type Checker interface {
	Latest(ctx context.Context) (*Release, error)
}

// HTTPChecker fetches release.json from a dist server.
type HTTPChecker struct {
	Server string
	Client *http.Client
}

func (c *HTTPChecker) Latest(ctx context.Context) (*Release, error) {
	server := c.Server
	if server == "" {
		server = "https://static.rust-lang.org"
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/rustup/release-info.json", nil)
	if err != nil {
		return nil, fmt.Errorf("selfupdate: building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("selfupdate: fetching release info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("selfupdate: release info: status %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("selfupdate: decoding release info: %w", err)
	}
	return &rel, nil
}

// ErrUpToDate is returned by Run when currentVersion already matches the
// latest published release.
var ErrUpToDate = fmt.Errorf("selfupdate: already up to date")

// Options configures one self-update attempt.
type Options struct {
	CurrentVersion string
	CurrentExe     string
	Policy         settings.SelfUpdatePolicy
	// Force suppresses the policy check, for `rustup self update` run
	// explicitly rather than as a side effect of another command.
	Force  bool
	Client *http.Client
	Logger *zap.Logger
}

// Run checks for and, unless Policy forbids it, installs a new dispatcher
// build. It returns the Release that was found (even under check-only or
// ErrUpToDate) so callers can report it.
func Run(ctx context.Context, checker Checker, opts Options) (*Release, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if !opts.Force && opts.Policy == settings.SelfUpdateDisable {
		return nil, nil
	}

	rel, err := checker.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if rel.Version == opts.CurrentVersion {
		return rel, ErrUpToDate
	}

	if !opts.Force && opts.Policy == settings.SelfUpdateCheckOnly {
		logger.Info("newer rustup available", zap.String("version", rel.Version))
		return rel, nil
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	dir := filepath.Dir(opts.CurrentExe)
	staged := filepath.Join(dir, ".rustup-update-"+rel.Version)
	replaced := false
	defer func() {
		if !replaced {
			os.Remove(staged)
		}
	}()

	if err := download.Get(ctx, client, download.Options{
		URL:    rel.URL,
		Dest:   staged,
		SHA256: rel.SHA256,
	}); err != nil {
		return nil, fmt.Errorf("selfupdate: downloading %s: %w", rel.Version, err)
	}

	if info, err := os.Stat(opts.CurrentExe); err == nil {
		os.Chmod(staged, info.Mode())
	} else {
		os.Chmod(staged, 0o755)
	}

	if err := replace(opts.CurrentExe, staged, logger); err != nil {
		return nil, err
	}
	replaced = true

	logger.Info("rustup self-updated", zap.String("version", rel.Version))
	return rel, nil
}

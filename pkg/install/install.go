// Package install orchestrates end-to-end toolchain installation: manifest
// fetch with hash-based caching, diff computation, download execution,
// unpack into a staging directory, and transaction commit (spec.md §4.9).
//
// The orchestration shape — fetch/resolve, clone/download, validate,
// install-to-directory, with a progress sink threaded through and
// structured zap logging at each step — mirrors the pack's orla
// (internal/installer/installer.go's InstallTool/InstallLocalTool), the
// closest analogue in the corpus to a multi-stage fetch-then-materialize
// installer; rustup's components replace orla's git-tag-pinned tools but
// the control flow (fetch catalog → resolve name → fetch artifact →
// validate → write into place) is the same shape.
package install

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/rustup-rs/rustup/pkg/download"
	"github.com/rustup-rs/rustup/pkg/manifest"
	"github.com/rustup-rs/rustup/pkg/toolchain"
	"github.com/rustup-rs/rustup/pkg/transaction"
	"github.com/rustup-rs/rustup/pkg/triple"
	"github.com/rustup-rs/rustup/pkg/unpack"
)

// Request mirrors spec.md §6's InstallRequest external-interface contract.
type Request struct {
	Toolchain  string
	Profile    toolchain.Profile
	Components []string
	Targets    []string
	Force      bool
	// AllowDowngrade raises the nightly backtracking bound from
	// Installer.BacktrackLimit to a fixed 365 days; the bound does not
	// follow release-cycle boundaries.
	AllowDowngrade bool
}

// Installer holds the dependencies one Install call needs: where toolchains
// live, which dist server serves manifests, the HTTP client downloads use,
// and a logger.
type Installer struct {
	RustupHome string
	DistServer string
	Client     *http.Client
	Logger     *zap.Logger
	// BacktrackLimit bounds nightly backtracking in days (RUSTUP_BACKTRACK_LIMIT).
	BacktrackLimit int

	manifestCache *ManifestCache
}

// WithManifestCache attaches an in-process manifest cache, avoiding
// redundant TOML decodes across repeated Install calls in one process.
func (ins *Installer) WithManifestCache(c *ManifestCache) *Installer {
	ins.manifestCache = c
	return ins
}

// ErrComponentNotFound is returned when a requested component name isn't in
// the manifest at all (as opposed to unavailable for the target, which is
// manifest.ErrComponentUnavailable). Suggestion holds the closest known
// package name by Levenshtein distance, or empty if nothing is close.
type ErrComponentNotFound struct {
	Name       string
	Suggestion string
}

func (e *ErrComponentNotFound) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown component %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown component %q", e.Name)
}

// suggestComponent returns the manifest package name closest to name by
// Levenshtein edit distance, the same technique the pack's orla uses in
// registry.SuggestSimilarToolName for unknown-tool-name typo correction.
func suggestComponent(m *manifest.Manifest, name string) string {
	best := ""
	bestDist := 1 << 30
	for candidate := range m.Pkg {
		d := levenshtein.ComputeDistance(name, candidate)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	if bestDist > 3 {
		return ""
	}
	return best
}

// Install performs a full install/update of req.Toolchain, returning the
// resulting Toolchain record on success. A failure at any step leaves the
// toolchain directory in its pre-operation state (the transaction layer's
// rollback guarantee).
func (ins *Installer) Install(ctx context.Context, req Request) (*toolchain.Toolchain, error) {
	logger := ins.logger()
	host := triple.Host()

	desc, err := triple.ParseDescriptor(req.Toolchain, host)
	if err != nil {
		return nil, fmt.Errorf("install: %w", err)
	}

	target := host
	if desc.Host != nil {
		target = *desc.Host
	}

	fm, resolvedDate, err := ins.fetchManifestWithBacktrack(ctx, desc, target, req, logger)
	if err != nil {
		return nil, err
	}
	m := fm.Manifest

	name := toolchainDirName(desc, resolvedDate, target)

	installed := ins.installedComponentNames(name)

	wantNames, err := ins.wantedComponentNames(m, req)
	if err != nil {
		return nil, err
	}
	for _, c := range req.Components {
		_, pkg, err := m.ResolvePackage(c)
		if err != nil {
			return nil, &ErrComponentNotFound{Name: c, Suggestion: suggestComponent(m, c)}
		}
		if _, err := pkg.Availability(target.String()); err != nil && !req.Force {
			return nil, fmt.Errorf("install: %w", err)
		}
	}

	plan, err := m.Diff(target.String(), installed, wantNames, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("install: computing diff: %w", err)
	}
	if len(plan.Add) == 0 && len(plan.Remove) == 0 {
		logger.Info("toolchain already up to date", zap.String("toolchain", name))
		return ins.loadInstalledToolchain(name, target)
	}

	stagingDir, err := newStagingDir(ins.RustupHome)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stagingDir)

	for _, removeName := range plan.Remove {
		logger.Info("removing component", zap.String("component", removeName))
	}

	for _, addName := range plan.Add {
		_, pkg, err := m.ResolvePackage(addName)
		if err != nil {
			suggestion := suggestComponent(m, addName)
			return nil, &ErrComponentNotFound{Name: addName, Suggestion: suggestion}
		}
		ta, err := pkg.Availability(target.String())
		if err != nil {
			if req.Force {
				logger.Warn("component unavailable for target, forcing install marker only",
					zap.String("component", addName), zap.String("target", target.String()))
				continue
			}
			return nil, fmt.Errorf("install: %w", err)
		}

		if err := ins.fetchAndUnpackComponent(ctx, addName, ta, stagingDir, logger); err != nil {
			return nil, err
		}
	}

	tx := transaction.New(ins.RustupHome)
	toolchainDir := filepath.Join("toolchains", name)
	for _, removeName := range plan.Remove {
		tx.RemoveDir(filepath.Join(toolchainDir, "components", removeName))
	}
	tx.CopyDir(stagingDir, toolchainDir)

	// A toolchain directory is complete only once its manifest copy and
	// channel hash are on disk alongside the unpacked components (spec.md
	// §3: "complete ... or absent"); enqueue both writes into the same
	// transaction so a failure anywhere rolls everything back together.
	manifestCopyRel, err := filepath.Rel(ins.RustupHome, toolchain.ManifestCopyPath(ins.RustupHome, name))
	if err != nil {
		return nil, fmt.Errorf("install: %w", err)
	}
	hashFileRel, err := filepath.Rel(ins.RustupHome, toolchain.HashFilePath(ins.RustupHome, name))
	if err != nil {
		return nil, fmt.Errorf("install: %w", err)
	}
	if err := enqueueWriteFile(tx, manifestCopyRel, fm.RawData, 0o644); err != nil {
		return nil, fmt.Errorf("install: staging manifest copy: %w", err)
	}
	if err := enqueueWriteFile(tx, hashFileRel, []byte(fm.Hash), 0o644); err != nil {
		return nil, fmt.Errorf("install: staging hash file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("install: committing transaction: %w", err)
	}

	logger.Info("toolchain installed",
		zap.String("toolchain", name),
		zap.Strings("added", plan.Add),
		zap.Strings("removed", plan.Remove))

	return ins.loadInstalledToolchain(name, target)
}

// enqueueWriteFile stages an AddFile for a path that doesn't exist yet, or a
// ModifyFile (which preserves the prior content for rollback) when it does,
// so writing the manifest copy and hash file works both for a fresh install
// and for updating an existing toolchain directory in place.
func enqueueWriteFile(tx *transaction.Transaction, relPath string, content []byte, mode os.FileMode) error {
	if _, err := os.Stat(filepath.Join(tx.Root(), relPath)); err == nil {
		return tx.ModifyFile(relPath, content)
	}
	tx.AddFile(relPath, content, mode)
	return nil
}

func (ins *Installer) logger() *zap.Logger {
	if ins.Logger != nil {
		return ins.Logger
	}
	return zap.NewNop()
}

func toolchainDirName(desc *triple.Descriptor, resolvedDate string, target triple.Triple) string {
	name := desc.Name
	if desc.Kind == triple.ChannelMajorMinor || desc.Kind == triple.ChannelFull {
		name = triple.ResolvedVersion(desc.Name)
	}
	if resolvedDate != "" {
		name = name + "-" + resolvedDate
	}
	return name + "-" + target.String()
}

func (ins *Installer) installedComponentNames(toolchainName string) []string {
	copyPath := toolchain.ManifestCopyPath(ins.RustupHome, toolchainName)
	data, err := os.ReadFile(copyPath)
	if err != nil {
		return nil
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(m.Pkg))
	for name := range m.Pkg {
		names = append(names, name)
	}
	return names
}

func (ins *Installer) wantedComponentNames(m *manifest.Manifest, req Request) ([]string, error) {
	var names []string
	if req.Profile != "" {
		profileNames, err := m.ComponentsForProfile(string(req.Profile))
		if err != nil {
			// Fall back to the fixed default-component tables when the
			// manifest doesn't itself define profiles (older manifests).
			profileNames = toolchain.ComponentsForProfile(req.Profile)
		}
		names = append(names, profileNames...)
	}
	names = append(names, req.Components...)
	return names, nil
}

func (ins *Installer) loadInstalledToolchain(name string, host triple.Triple) (*toolchain.Toolchain, error) {
	return &toolchain.Toolchain{Name: name, Host: host}, nil
}

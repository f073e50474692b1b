package install

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rustup-rs/rustup/pkg/manifest"
)

// manifestCacheSize bounds the in-process memory cache of decoded
// manifests; the on-disk cache in fetchManifest is what actually avoids
// redownloading, this just avoids redecoding the same TOML repeatedly
// within one long-lived process (e.g. repeated Install calls on one
// Installer).
const manifestCacheSize = 16

// ManifestCache memoizes decoded manifests by their published hash.
type ManifestCache struct {
	cache *lru.Cache[string, *manifest.Manifest]
}

// NewManifestCache creates a cache ready for concurrent use.
func NewManifestCache() *ManifestCache {
	c, _ := lru.New[string, *manifest.Manifest](manifestCacheSize)
	return &ManifestCache{cache: c}
}

// Get returns the cached manifest for hash, if present.
func (c *ManifestCache) Get(hash string) (*manifest.Manifest, bool) {
	return c.cache.Get(hash)
}

// Put stores m under hash, evicting the least recently used entry if the
// cache is full.
func (c *ManifestCache) Put(hash string, m *manifest.Manifest) {
	c.cache.Add(hash, m)
}

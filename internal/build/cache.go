package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Cellar layout:
//
//	workspaceDir/Cellar/
//	  <name>/
//	    .cache.json    # build cache: maps version to its cacheEntry
//	    .lock          # serializes concurrent builds of the package
//	    <version>/     # install prefix
//	      bin/
//	      lib/
//	      ...
const cacheFile = ".cache.json"

// cacheEntry contains metadata about a single successful build.
type cacheEntry struct {
	Strategy  string    `json:"strategy"`
	BuildTime time.Time `json:"build_time"`
}

// buildCache maps versions to their build entries.
type buildCache struct {
	Cache map[string]*cacheEntry `json:"cache"`
}

func (c *buildCache) get(version string) (*cacheEntry, bool) {
	entry, ok := c.Cache[version]
	return entry, ok
}

func (c *buildCache) set(version string, entry *cacheEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*cacheEntry)
	}
	c.Cache[version] = entry
}

// packageDir returns the per-package directory holding the cache, the lock
// and the versioned install prefixes.
func (b *Builder) packageDir(name string) string {
	return filepath.Join(b.workspaceDir, "Cellar", name)
}

// loadCache reads the cache file for a package.
func (b *Builder) loadCache(name string) (*buildCache, error) {
	data, err := os.ReadFile(filepath.Join(b.packageDir(name), cacheFile))
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// saveCache writes the cache file for a package.
func (b *Builder) saveCache(name string, cache *buildCache) error {
	dir := b.packageDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}

// Package cache persists drilldown responses on the filesystem, keyed by
// component id and breadcrumb path.
//
// Layout under the base directory:
//
//	drilldown/<componentID>/<pathHash>/response.json
//	drilldown/<componentID>/metadata.json
//
// metadata.json maps pathHash to freshness info for every cached path of the
// component. Reads and writes never fail the caller: a fault downgrades to a
// miss (or a no-op) with a diagnostic on stderr. Concurrent writers to the
// same component are not supported; callers are expected to serialize runs
// per component.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/richinex/spelunk/model"
)

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

// rootPathKey is the sentinel hash for an empty breadcrumb path.
const rootPathKey = "root"

// keySeparator joins breadcrumb keys before hashing. A non-printing
// separator keeps "a"+"bc" distinct from "ab"+"c".
const keySeparator = "\x1f"

// PathHash returns the cache key for a breadcrumb path. Identical ordered
// key sequences hash identically; an empty path maps to the root sentinel.
func PathHash(breadcrumbs []model.Breadcrumb) string {
	if len(breadcrumbs) == 0 {
		return rootPathKey
	}
	keys := make([]string, len(breadcrumbs))
	for i, crumb := range breadcrumbs {
		keys[i] = crumb.NodeKey
	}
	sum := xxhash.Sum64String(strings.Join(keys, keySeparator))
	return fmt.Sprintf("%016x", sum)[:12]
}

// pathMeta records when a path was written and how long it stays fresh.
type pathMeta struct {
	LastUpdated time.Time `json:"last_updated"`
	TTLSeconds  int64     `json:"ttl_seconds"`
}

func (m pathMeta) expired(now time.Time) bool {
	return now.Sub(m.LastUpdated) > time.Duration(m.TTLSeconds)*time.Second
}

// Cache is a file-backed, TTL'd response store.
type Cache struct {
	baseDir string
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache rooted at baseDir. A non-positive ttl selects DefaultTTL.
func New(baseDir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{baseDir: baseDir, ttl: ttl, now: time.Now}
}

func (c *Cache) componentDir(componentID string) string {
	return filepath.Join(c.baseDir, "drilldown", componentID)
}

func (c *Cache) responsePath(componentID, pathHash string) string {
	return filepath.Join(c.componentDir(componentID), pathHash, "response.json")
}

func (c *Cache) metadataPath(componentID string) string {
	return filepath.Join(c.componentDir(componentID), "metadata.json")
}

// Get returns the cached response for (componentID, breadcrumbs), or nil on
// a miss. With checkTTL set, a stale record counts as a miss and is removed
// in passing; without it, a stale record is still served. Any I/O or decode
// fault also counts as a miss.
func (c *Cache) Get(componentID string, breadcrumbs []model.Breadcrumb, checkTTL bool) *model.DrilldownResponse {
	pathHash := PathHash(breadcrumbs)

	meta := c.readMetadata(componentID)
	entry, ok := meta[pathHash]
	if !ok {
		return nil
	}
	if checkTTL && entry.expired(c.now()) {
		c.evict(componentID, pathHash)
		return nil
	}

	data, err := os.ReadFile(c.responsePath(componentID, pathHash))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "cache: read %s/%s: %v\n", componentID, pathHash, err)
		}
		return nil
	}

	var response model.DrilldownResponse
	if err := json.Unmarshal(data, &response); err != nil {
		fmt.Fprintf(os.Stderr, "cache: corrupt record %s/%s: %v\n", componentID, pathHash, err)
		c.evict(componentID, pathHash)
		return nil
	}
	return &response
}

// Put stores a response for (componentID, breadcrumbs). Faults are reported
// on stderr and otherwise ignored; a failed write leaves the cache no worse
// than a miss.
func (c *Cache) Put(componentID string, breadcrumbs []model.Breadcrumb, response *model.DrilldownResponse) {
	pathHash := PathHash(breadcrumbs)
	dir := filepath.Dir(c.responsePath(componentID, pathHash))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cache: mkdir %s: %v\n", dir, err)
		return
	}

	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache: encode %s/%s: %v\n", componentID, pathHash, err)
		return
	}
	if err := writeFileAtomic(c.responsePath(componentID, pathHash), data); err != nil {
		fmt.Fprintf(os.Stderr, "cache: write %s/%s: %v\n", componentID, pathHash, err)
		return
	}

	meta := c.readMetadata(componentID)
	meta[pathHash] = pathMeta{
		LastUpdated: c.now().UTC(),
		TTLSeconds:  int64(c.ttl / time.Second),
	}
	c.writeMetadata(componentID, meta)
}

// SweepExpired removes every stale record across all cached components and
// returns how many were removed.
func (c *Cache) SweepExpired() int {
	entries, err := os.ReadDir(filepath.Join(c.baseDir, "drilldown"))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "cache: sweep: %v\n", err)
		}
		return 0
	}

	now := c.now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			removed += c.sweepComponent(entry.Name(), now)
		}
	}
	return removed
}

func (c *Cache) sweepComponent(componentID string, now time.Time) int {
	removed := 0
	for pathHash, entry := range c.readMetadata(componentID) {
		if entry.expired(now) {
			c.evict(componentID, pathHash)
			removed++
		}
	}
	return removed
}

// ClearPath removes the cached record for one drilldown path of a component,
// leaving its other paths intact.
func (c *Cache) ClearPath(componentID string, breadcrumbs []model.Breadcrumb) {
	c.evict(componentID, PathHash(breadcrumbs))
}

// ClearComponent removes every cached record of a component.
func (c *Cache) ClearComponent(componentID string) error {
	dir := c.componentDir(componentID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear cache for %s: %w", componentID, err)
	}
	return nil
}

// evict drops one path's record and metadata entry.
func (c *Cache) evict(componentID, pathHash string) {
	dir := filepath.Dir(c.responsePath(componentID, pathHash))
	if err := os.RemoveAll(dir); err != nil {
		fmt.Fprintf(os.Stderr, "cache: evict %s/%s: %v\n", componentID, pathHash, err)
	}

	meta := c.readMetadata(componentID)
	if _, ok := meta[pathHash]; ok {
		delete(meta, pathHash)
		c.writeMetadata(componentID, meta)
	}
}

func (c *Cache) readMetadata(componentID string) map[string]pathMeta {
	meta := make(map[string]pathMeta)

	data, err := os.ReadFile(c.metadataPath(componentID))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "cache: read metadata for %s: %v\n", componentID, err)
		}
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		fmt.Fprintf(os.Stderr, "cache: corrupt metadata for %s: %v\n", componentID, err)
		return make(map[string]pathMeta)
	}
	return meta
}

func (c *Cache) writeMetadata(componentID string, meta map[string]pathMeta) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache: encode metadata for %s: %v\n", componentID, err)
		return
	}
	if err := os.MkdirAll(c.componentDir(componentID), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cache: mkdir for %s: %v\n", componentID, err)
		return
	}
	if err := writeFileAtomic(c.metadataPath(componentID), data); err != nil {
		fmt.Fprintf(os.Stderr, "cache: write metadata for %s: %v\n", componentID, err)
	}
}

// writeFileAtomic writes through a temp file and rename so a record is never
// observed half-written.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

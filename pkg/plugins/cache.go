package plugins

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/plugload/pkg/namespace"
)

// DefaultCacheSize is the number of manifests a cache holds by default.
const DefaultCacheSize = 256

// Stamp identifies one version of a manifest source. A cached entry is reused
// only while the stamp is unchanged.
type Stamp struct {
	Size    int64
	ModTime int64 // Unix nanoseconds
	ETag    string
}

// ReadFunc reads the raw manifest.
type ReadFunc func() ([]byte, error)

// BuildFunc turns a parsed manifest into a unit.
type BuildFunc func(*Manifest) (*namespace.Unit, error)

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits      int64
	Misses    int64
	ItemCount int
	HitRate   float64
}

// ManifestCache keeps parsed manifests, and the units built from them, keyed
// by source location. Building a unit runs factories that may construct
// singletons, so every resolver sharing a cache shares those instances.
type ManifestCache struct {
	mu      sync.Mutex
	entries *lru.LRU[string, *cacheEntry]
	hits    atomic.Int64
	misses  atomic.Int64
}

type cacheEntry struct {
	stamp    Stamp
	manifest *Manifest
	err      error

	once sync.Once
	unit *namespace.Unit
	uerr error
}

// NewManifestCache creates a cache holding up to size manifests. A positive
// ttl also expires entries by age.
func NewManifestCache(size int, ttl time.Duration) *ManifestCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &ManifestCache{
		entries: lru.NewLRU[string, *cacheEntry](size, nil, ttl),
	}
}

// Manifest returns the parsed manifest for key, reading it with read when
// the cache has no entry with the same stamp.
func (c *ManifestCache) Manifest(key string, stamp Stamp, read ReadFunc) (*Manifest, error) {
	e := c.entry(key, stamp, read)
	return e.manifest, e.err
}

// Unit returns the unit for key, building it at most once per manifest
// version.
func (c *ManifestCache) Unit(key string, stamp Stamp, read ReadFunc, build BuildFunc) (*namespace.Unit, error) {
	e := c.entry(key, stamp, read)
	if e.err != nil {
		return nil, e.err
	}

	e.once.Do(func() {
		e.unit, e.uerr = build(e.manifest)
	})
	return e.unit, e.uerr
}

// Purge drops every entry.
func (c *ManifestCache) Purge() {
	c.entries.Purge()
}

// Stats returns cache statistics
func (c *ManifestCache) Stats() CacheStats {
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: c.entries.Len(),
	}

	// Calculate hit rate
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

func (c *ManifestCache) entry(key string, stamp Stamp, read ReadFunc) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries.Get(key); ok && e.stamp == stamp {
		c.hits.Add(1)
		return e
	}
	c.misses.Add(1)

	e := &cacheEntry{stamp: stamp}
	data, err := read()
	if err == nil {
		e.manifest, err = ParseManifest(data)
	}
	e.err = err

	c.entries.Add(key, e)
	return e
}

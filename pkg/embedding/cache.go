package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/logger"
)

// CacheEntry holds one cached vector keyed by the SHA-256 of the exact text
// that produced it. Hashing the content into the key means a changed text can
// never be served a stale vector: the new text simply misses.
type CacheEntry struct {
	ContentHash string    `json:"content_hash"`
	Embedder    string    `json:"embedder"`
	Vector      []float64 `json:"vector"`
	CachedAt    time.Time `json:"cached_at"`
}

// Cache is a content-addressed vector cache shared across sessions. It is
// safe for concurrent use. Persistence is optional: with a path configured,
// Save writes the whole cache with the same replace-on-success discipline as
// the skill index.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	path    string
}

// NewCache creates an in-memory cache. path may be empty for a cache that is
// never persisted.
func NewCache(path string) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		path:    path,
	}
}

// ContentKey returns the cache key for a piece of text.
func ContentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for text computed by the named embedder.
func (c *Cache) Get(text, embedder string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ContentKey(text)]
	if !ok || entry.Embedder != embedder {
		return nil, false
	}
	return entry.Vector, true
}

// Put stores a vector for text computed by the named embedder.
func (c *Cache) Put(text, embedder string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := ContentKey(text)
	c.entries[key] = CacheEntry{
		ContentHash: key,
		Embedder:    embedder,
		Vector:      vector,
		CachedAt:    time.Now(),
	}
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load reads the persisted cache file if one is configured. A missing or
// corrupt file is not an error: vectors are recomputed on demand, so the
// cache simply starts empty.
func (c *Cache) Load(ctx context.Context) {
	if c.path == "" {
		return
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.G(ctx).WithError(err).WithField("path", c.path).
			Warn("Embedding cache file is corrupt, starting empty")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
}

// Save persists the cache to its configured path via temp file + rename so a
// crash mid-write leaves the previous file intact.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "failed to marshal embedding cache")
	}

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary cache file")
	}
	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary cache file")
	}
	return nil
}

// CachedEmbedder wraps any Embedder with the cache.
type CachedEmbedder struct {
	embedder Embedder
	cache    *Cache
}

// NewCachedEmbedder decorates embedder with cache.
func NewCachedEmbedder(embedder Embedder, cache *Cache) *CachedEmbedder {
	return &CachedEmbedder{embedder: embedder, cache: cache}
}

// Name returns the underlying embedder's identifier.
func (e *CachedEmbedder) Name() string {
	return e.embedder.Name()
}

// Embed returns the cached vector for text when present, computing and
// caching it otherwise.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := e.cache.Get(text, e.embedder.Name()); ok {
		return vec, nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Put(text, e.embedder.Name(), vec)
	return vec, nil
}

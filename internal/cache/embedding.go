package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/replify/kbengine/internal/embed"
)

// sharedWriteTimeout bounds the background shared-tier write.
const sharedWriteTimeout = 2 * time.Second

// EmbeddingCache wraps a Generator with a local LRU and an optional shared
// tier. Shared-tier failures degrade silently to local-only caching.
type EmbeddingCache struct {
	generator embed.Generator
	local     *lru.Cache[string, []float32]
	shared    SharedCache
	logger    *slog.Logger

	localHits  atomic.Int64
	sharedHits atomic.Int64
	misses     atomic.Int64
}

var _ embed.Generator = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates the cache. shared may be nil; localSize must be
// positive.
func NewEmbeddingCache(generator embed.Generator, localSize int, shared SharedCache, logger *slog.Logger) (*EmbeddingCache, error) {
	local, err := lru.New[string, []float32](localSize)
	if err != nil {
		return nil, err
	}
	if shared == nil {
		shared = NoopSharedCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{
		generator: generator,
		local:     local,
		shared:    shared,
		logger:    logger,
	}, nil
}

// Key derives the cache key for text under model:
// hex(sha256(model + ":" + normalized text)). Normalization lowercases and
// collapses whitespace runs, so "  Precios " and "precios" share one entry.
func Key(model, text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(model + ":" + normalized))
	return hex.EncodeToString(sum[:])
}

// Embed implements embed.Generator with two-tier caching.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(c.generator.Model(), text)

	if vec, ok := c.local.Get(key); ok {
		c.localHits.Add(1)
		return vec, nil
	}

	vec, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		c.logger.Debug("shared_cache_get_failed", slog.String("error", err.Error()))
	} else if ok {
		c.sharedHits.Add(1)
		c.local.Add(key, vec)
		return vec, nil
	}

	c.misses.Add(1)
	vec, err = c.generator.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.local.Add(key, vec)
	go c.writeShared(key, vec)
	return vec, nil
}

// EmbedBatch implements embed.Generator. Cached entries are served locally;
// only the remainder hits the underlying generator.
func (c *EmbeddingCache) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		key := Key(c.generator.Model(), text)
		if vec, ok := c.local.Get(key); ok {
			c.localHits.Add(1)
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	c.misses.Add(int64(len(missing)))
	vecs, err := c.generator.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		key := Key(c.generator.Model(), missing[j])
		c.local.Add(key, vec)
		go c.writeShared(key, vec)
		out[missingIdx[j]] = vec
	}
	return out, nil
}

// Model implements embed.Generator.
func (c *EmbeddingCache) Model() string { return c.generator.Model() }

// Dimensions implements embed.Generator.
func (c *EmbeddingCache) Dimensions() int { return c.generator.Dimensions() }

// writeShared stores a vector in the shared tier, best effort.
func (c *EmbeddingCache) writeShared(key string, vec []float32) {
	ctx, cancel := context.WithTimeout(context.Background(), sharedWriteTimeout)
	defer cancel()

	if err := c.shared.Set(ctx, key, vec); err != nil {
		c.logger.Debug("shared_cache_set_failed", slog.String("error", err.Error()))
	}
}

// Stats summarizes cache effectiveness.
type Stats struct {
	LocalHits  int64 `json:"local_hits"`
	SharedHits int64 `json:"shared_hits"`
	Misses     int64 `json:"misses"`
	LocalLen   int   `json:"local_len"`
}

// Stats returns a snapshot of hit/miss counters.
func (c *EmbeddingCache) Stats() Stats {
	return Stats{
		LocalHits:  c.localHits.Load(),
		SharedHits: c.sharedHits.Load(),
		Misses:     c.misses.Load(),
		LocalLen:   c.local.Len(),
	}
}

package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbeddingCache is an LRU cache for embeddings keyed by text.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) (*EmbeddingCache, error) {
	c, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: c}, nil
}

// Get returns a copy of the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return append([]float32(nil), v...), true
}

// Set stores the embedding for key, evicting the least recently used entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.cache.Add(key, append([]float32(nil), value...))
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// CachedEmbedder serves repeated texts from an EmbeddingCache and delegates misses.
type CachedEmbedder struct {
	Embedder
	cache *EmbeddingCache
}

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) (*CachedEmbedder, error) {
	c, err := NewEmbeddingCache(capacity)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{Embedder: inner, cache: c}, nil
}

// Embed returns the cached embedding for text or computes and caches it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	v, err := e.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, v)
	return v, nil
}

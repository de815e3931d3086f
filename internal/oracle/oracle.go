package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrProviderFailed    = errors.New("oracle provider failed")
	ErrNoProviderEnabled = errors.New("no oracle provider configured")
	ErrUnsupportedModel  = errors.New("unsupported provider")
)

// Embedder is the embedding capability port. It is consumed by the semantic
// augmenter and the graph store's semantic search, nowhere else.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int
}

// Completer is the text-completion capability port.
type Completer interface {
	// Complete generates a free-text completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Oracle combines both capability ports behind a single provider.
type Oracle interface {
	Embedder
	Completer

	// Provider returns the provider name.
	Provider() string

	// Close releases any resources held by the provider.
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. Returning a copy keeps caller
// mutations out of the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector with automatic LRU eviction.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// ComputeHash computes the SHA-256 hash of text for caching.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

package retrieval

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/generation"
)

// Embedder converts text to vectors. It matches the langchaingo
// embeddings.Embedder contract.
type Embedder = embeddings.Embedder

// NewEmbedder creates an OpenAI-backed embedder for the configured
// embedding model.
func NewEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	client, err := generation.NewOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	e, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return e, nil
}

// CachedEmbedder memoizes query embeddings in an LRU cache. Document
// embeddings pass straight through since ingestion rarely repeats text.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with a cache holding up to size queries.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return slices.Clone(v), nil
	}

	v, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Add(text, slices.Clone(v))
	return v, nil
}

func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.inner.EmbedDocuments(ctx, texts)
}

// Len reports the number of cached queries.
func (e *CachedEmbedder) Len() int {
	return e.cache.Len()
}

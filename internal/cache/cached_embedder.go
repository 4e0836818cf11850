package cache

import (
	"context"
	"errors"
	"fmt"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/ragerr"
)

// CachedEmbedder serves repeated texts from redis and only sends misses to the
// wrapped embedder. Cache failures are logged and never fail the call. Entries
// that fail to decode or have the wrong dimension are evicted and re-embedded.
type CachedEmbedder struct {
	inner ai.Embedder
	cache *EmbeddingCache
	log   logger.Logger
}

func NewCachedEmbedder(inner ai.Embedder, cache *EmbeddingCache, log logger.Logger) *CachedEmbedder {
	if log == nil {
		log = logger.Discard()
	}
	return &CachedEmbedder{inner: inner, cache: cache, log: log}
}

func (e *CachedEmbedder) ID() string {
	return e.inner.ID()
}

func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	id := e.inner.ID()
	dim := e.inner.Dimension()
	for i, text := range texts {
		vec, ok, err := e.cache.Get(ctx, id, text)
		if err != nil {
			e.log.Warn("embedding cache read failed", "err", err)
		}
		if errors.Is(err, ErrCorruptEntry) || ok && dim > 0 && len(vec) != dim {
			e.evict(ctx, id, text)
			ok = false
		}
		if ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: embedder %s returned %d vectors for %d texts", ragerr.ErrEmbedding, id, len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		out[missIdx[j]] = vec
		if err := e.cache.Set(ctx, id, missTexts[j], vec); err != nil {
			e.log.Warn("embedding cache write failed", "err", err)
		}
	}
	return out, nil
}

func (e *CachedEmbedder) evict(ctx context.Context, id, text string) {
	if err := e.cache.Delete(ctx, id, text); err != nil {
		e.log.Warn("embedding cache evict failed", "err", err)
	}
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

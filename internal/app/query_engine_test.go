package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/ragerr"
)

func builtStore(t *testing.T, texts ...string) *memStore {
	t.Helper()
	store := &memStore{}
	_, err := NewIndexService(&stubEmbedder{}, store, 10, nil).Build(context.Background(), makeChunks(texts...))
	require.NoError(t, err)
	return store
}

func TestQueryEngine_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("Should answer from the nearest chunks", func(t *testing.T) {
		store := builtStore(t, "apple pie", "banana", "cherry tart recipe")
		gen := &stubGenerator{key: "k", answer: "Bake it."}
		engine := NewQueryEngine(store, &stubEmbedder{}, gen, QueryOptions{TopK: 2})

		answer, err := engine.Ask(ctx, "banana")
		require.NoError(t, err)
		assert.Equal(t, "Bake it.", answer.Text)
		require.Len(t, answer.Sources, 2)
		assert.Equal(t, "banana", answer.Sources[0].Text)
		assert.InDelta(t, 0, answer.Sources[0].Distance, 1e-9)
		assert.LessOrEqual(t, answer.Sources[0].Distance, answer.Sources[1].Distance)

		require.Len(t, gen.messages, 2)
		assert.Equal(t, ai.RoleSystem, gen.messages[0].Role)
		assert.Contains(t, gen.messages[1].Content, "Context:")
		assert.Contains(t, gen.messages[1].Content, "banana")
		assert.True(t, strings.HasSuffix(gen.messages[1].Content, "Question: banana\n\nAnswer:"))
	})

	t.Run("Should reject an empty query", func(t *testing.T) {
		emb := &stubEmbedder{}
		gen := &stubGenerator{key: "k"}
		engine := NewQueryEngine(builtStore(t, "a"), emb, gen, QueryOptions{})

		_, err := engine.Ask(ctx, "   ")
		assert.ErrorIs(t, err, ragerr.ErrInvalidInput)
		assert.Zero(t, emb.callCount())
		assert.Zero(t, gen.callCount())
	})

	t.Run("Should fail fast without a credential", func(t *testing.T) {
		emb := &stubEmbedder{}
		gen := &stubGenerator{}
		engine := NewQueryEngine(builtStore(t, "a"), emb, gen, QueryOptions{})

		_, err := engine.Ask(ctx, "what is a?")
		assert.ErrorIs(t, err, ragerr.ErrAuthentication)
		assert.Zero(t, gen.callCount())
		assert.Zero(t, emb.callCount())
	})

	t.Run("Should fail before embedding when no index exists", func(t *testing.T) {
		emb := &stubEmbedder{}
		gen := &stubGenerator{key: "k"}
		engine := NewQueryEngine(&memStore{}, emb, gen, QueryOptions{})

		_, err := engine.Ask(ctx, "anything")
		assert.ErrorIs(t, err, ragerr.ErrIndexNotFound)
		assert.Zero(t, emb.callCount())
		assert.Zero(t, gen.callCount())
	})

	t.Run("Should wrap query embedding failures", func(t *testing.T) {
		store := builtStore(t, "a")
		engine := NewQueryEngine(store, &stubEmbedder{failOn: "boom"}, &stubGenerator{key: "k"}, QueryOptions{})

		_, err := engine.Ask(ctx, "boom")
		assert.ErrorIs(t, err, ragerr.ErrEmbedding)
	})

	t.Run("Should turn a timeout into ErrGeneration", func(t *testing.T) {
		gen := &stubGenerator{key: "k", block: true}
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{}, gen, QueryOptions{Timeout: 20 * time.Millisecond})

		_, err := engine.Ask(ctx, "a")
		assert.ErrorIs(t, err, ragerr.ErrGeneration)
		assert.Equal(t, 1, gen.callCount())
	})

	t.Run("Should keep authentication failures from the model", func(t *testing.T) {
		gen := &stubGenerator{key: "bad", err: fmt.Errorf("%w: 401", ragerr.ErrAuthentication)}
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{}, gen, QueryOptions{})

		_, err := engine.Ask(ctx, "a")
		assert.ErrorIs(t, err, ragerr.ErrAuthentication)
		assert.NotErrorIs(t, err, ragerr.ErrGeneration)
	})

	t.Run("Should wrap unclassified generator errors", func(t *testing.T) {
		gen := &stubGenerator{key: "k", err: errors.New("socket closed")}
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{}, gen, QueryOptions{})

		_, err := engine.Ask(ctx, "a")
		assert.ErrorIs(t, err, ragerr.ErrGeneration)
	})
}

func TestQueryEngine_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse an index built by another embedder", func(t *testing.T) {
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{id: "other:3"}, &stubGenerator{key: "k"}, QueryOptions{})
		assert.ErrorIs(t, engine.Load(ctx), ragerr.ErrEmbedderMismatch)
		assert.False(t, engine.Info().Loaded)
	})

	t.Run("Should pick up a rebuilt index on reload", func(t *testing.T) {
		store := builtStore(t, "a")
		engine := NewQueryEngine(store, &stubEmbedder{}, &stubGenerator{key: "k"}, QueryOptions{})
		require.NoError(t, engine.Load(ctx))
		assert.Equal(t, 1, engine.Info().Manifest.Count)

		_, err := NewIndexService(&stubEmbedder{}, store, 10, nil).Build(ctx, makeChunks("a", "b", "c"))
		require.NoError(t, err)

		require.NoError(t, engine.Load(ctx))
		assert.Equal(t, 1, engine.Info().Manifest.Count)

		require.NoError(t, engine.Reload(ctx))
		assert.Equal(t, 3, engine.Info().Manifest.Count)
	})

	t.Run("Should keep the old index when reload fails", func(t *testing.T) {
		store := builtStore(t, "a")
		engine := NewQueryEngine(store, &stubEmbedder{}, &stubGenerator{key: "k"}, QueryOptions{})
		require.NoError(t, engine.Load(ctx))

		store.loadErr = fmt.Errorf("%w: corrupt", ragerr.ErrIndexNotFound)
		assert.ErrorIs(t, engine.Reload(ctx), ragerr.ErrIndexNotFound)
		assert.True(t, engine.Info().Loaded)
	})

	t.Run("Should describe what it serves", func(t *testing.T) {
		engine := NewQueryEngine(&memStore{}, &stubEmbedder{}, &stubGenerator{}, QueryOptions{})
		info := engine.Info()
		assert.Equal(t, "stub-model", info.Model)
		assert.Equal(t, "stub:3", info.Embedder)
		assert.Equal(t, "memory", info.Store)
		assert.Equal(t, 3, info.TopK)
		assert.False(t, info.Credentials)
		assert.False(t, info.Loaded)
	})
}

func TestQueryEngine_AskStream(t *testing.T) {
	ctx := context.Background()

	t.Run("Should forward fragments from a streaming generator", func(t *testing.T) {
		gen := &streamingGenerator{stubGenerator: stubGenerator{key: "k"}, parts: []string{"Hel", "lo"}}
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{}, gen, QueryOptions{})

		var got []string
		answer, err := engine.AskStream(ctx, "a", func(chunk string) error {
			got = append(got, chunk)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hel", "lo"}, got)
		assert.Equal(t, "Hello", answer.Text)
	})

	t.Run("Should fall back to one fragment", func(t *testing.T) {
		gen := &stubGenerator{key: "k", answer: "whole"}
		engine := NewQueryEngine(builtStore(t, "a"), &stubEmbedder{}, gen, QueryOptions{})

		var got []string
		_, err := engine.AskStream(ctx, "a", func(chunk string) error {
			got = append(got, chunk)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"whole"}, got)
	})
}

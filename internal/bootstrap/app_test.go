package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-rag/internal/cache"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.Paths.ChunkFile = filepath.Join(dir, "chunks.json")
	cfg.Paths.IndexDir = filepath.Join(dir, "index")
	return cfg
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("Should wire the default local stack", func(t *testing.T) {
		a, err := New(ctx, testConfig(t), nil)
		require.NoError(t, err)
		defer a.Close()

		assert.Nil(t, a.MySQL)
		assert.Nil(t, a.Redis)
		assert.Nil(t, a.MQConn)
		assert.Nil(t, a.Publisher)
		assert.IsType(t, &vectorindex.DirStore{}, a.Store)
		assert.Equal(t, "hashing-v1:384", a.Embedder.ID())
		assert.False(t, a.Generator.HasCredential())

		_, err = a.Engine.Ask(ctx, "hello")
		assert.ErrorIs(t, err, ragerr.ErrAuthentication)
		assert.Error(t, a.StartWorker(ctx))
	})

	t.Run("Should switch engines when a key is entered", func(t *testing.T) {
		a, err := New(ctx, testConfig(t), nil)
		require.NoError(t, err)
		defer a.Close()

		before := a.Engine
		a.UseAPIKey("  typed-key  ")
		assert.NotSame(t, before, a.Engine)
		assert.True(t, a.Generator.HasCredential())
		assert.Equal(t, "typed-key", a.Config.LLM.APIKey)

		_, err = a.Engine.Ask(ctx, "hello")
		assert.ErrorIs(t, err, ragerr.ErrIndexNotFound)
	})

	t.Run("Should cache embeddings when redis is enabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = mr.Addr()

		a, err := New(ctx, cfg, nil)
		require.NoError(t, err)
		defer a.Close()

		require.NotNil(t, a.Redis)
		assert.IsType(t, &cache.CachedEmbedder{}, a.Embedder)
	})
}

func TestNewEmbedder(t *testing.T) {
	t.Run("Should need a key for the openai provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Embedding.Provider = config.EmbeddingProviderOpenAI
		cfg.Embedding.APIKey = ""
		_, err := NewEmbedder(cfg)
		assert.ErrorIs(t, err, ragerr.ErrAuthentication)
	})
}

package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"gopherai-rag/internal/ragerr"
)

// Embedder turns texts into fixed-dimension vectors. ID identifies the model so an
// index built with one embedder is never queried with another.
type Embedder interface {
	ID() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

type OpenAIEmbedder struct {
	cfg    EmbeddingConfig
	client *openai.Client
}

func NewOpenAIEmbedder(cfg EmbeddingConfig) (*OpenAIEmbedder, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding provider openai needs EMBEDDING_API_KEY", ragerr.ErrEmbeddingCredential)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: embedding model is empty", ragerr.ErrInvalidInput)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIEmbedder{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}, nil
}

func (e *OpenAIEmbedder) ID() string {
	return fmt.Sprintf("openai:%s:%d", e.cfg.Model, e.cfg.Dimension)
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.cfg.Dimension
}

// EmbedBatch returns one embedding per text, in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.cfg.Model),
		Dimensions: e.cfg.Dimension,
	})
	if err != nil {
		if isAuthStatus(err) {
			return nil, fmt.Errorf("%w: embedding request failed: %v", ragerr.ErrEmbeddingCredential, err)
		}
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	result := make([][]float32, len(data))
	for i := range data {
		if e.cfg.Dimension > 0 && len(data[i].Embedding) != e.cfg.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.cfg.Dimension, len(data[i].Embedding))
		}
		result[i] = data[i].Embedding
	}
	return result, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

const (
	defaultTopK              = 3
	defaultGenerationTimeout = 60 * time.Second

	systemInstruction = "You are an assistant that answers questions using only the context passages provided. " +
		"If the context does not contain the answer, say that you do not know. Keep the answer concise."
)

// Generator produces an answer from a prompt.
type Generator interface {
	HasCredential() bool
	Model() string
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// StreamGenerator additionally delivers the answer incrementally.
type StreamGenerator interface {
	Generator
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(chunk string) error) (string, error)
}

type QueryOptions struct {
	TopK    int
	Timeout time.Duration
	Logger  logger.Logger
}

type Answer struct {
	Text    string            `json:"answer"`
	Sources []vectorindex.Hit `json:"sources"`
}

// EngineInfo summarises what the engine is serving.
type EngineInfo struct {
	Model       string               `json:"model"`
	Embedder    string               `json:"embedder"`
	Store       string               `json:"store"`
	TopK        int                  `json:"top_k"`
	Loaded      bool                 `json:"index_loaded"`
	Manifest    vectorindex.Manifest `json:"manifest"`
	Credentials bool                 `json:"credential_configured"`
}

// QueryEngine answers questions against a loaded index. It is safe for
// concurrent use; Reload may run while queries are in flight.
type QueryEngine struct {
	store     vectorindex.Store
	embedder  ai.Embedder
	generator Generator
	topK      int
	timeout   time.Duration
	log       logger.Logger

	mu  sync.RWMutex
	idx *vectorindex.Index
}

func NewQueryEngine(store vectorindex.Store, embedder ai.Embedder, generator Generator, opts QueryOptions) *QueryEngine {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGenerationTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &QueryEngine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		topK:      opts.TopK,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
}

// Load reads the index from the store unless one is already loaded.
func (e *QueryEngine) Load(ctx context.Context) error {
	if e.index() != nil {
		return nil
	}
	return e.Reload(ctx)
}

// Reload reads the index from the store and replaces the loaded one. On failure
// the previously loaded index stays in place.
func (e *QueryEngine) Reload(ctx context.Context) error {
	idx, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	manifest := idx.Manifest()
	if manifest.Embedder != e.embedder.ID() {
		return fmt.Errorf("%w: index built with %q, querying with %q",
			ragerr.ErrEmbedderMismatch, manifest.Embedder, e.embedder.ID())
	}

	e.mu.Lock()
	e.idx = idx
	e.mu.Unlock()

	e.log.Info("index loaded", "store", e.store.Describe(), "entries", idx.Len(), "built_at", manifest.BuiltAt)
	return nil
}

func (e *QueryEngine) Info() EngineInfo {
	info := EngineInfo{
		Model:       e.generator.Model(),
		Embedder:    e.embedder.ID(),
		Store:       e.store.Describe(),
		TopK:        e.topK,
		Credentials: e.generator.HasCredential(),
	}
	if idx := e.index(); idx != nil {
		info.Loaded = true
		info.Manifest = idx.Manifest()
	}
	return info
}

func (e *QueryEngine) Ask(ctx context.Context, query string) (*Answer, error) {
	hits, messages, err := e.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	text, err := e.generator.Complete(genCtx, messages)
	if err != nil {
		return nil, classifyGeneration(err)
	}
	e.log.Debug("answer generated", "sources", len(hits), "elapsed", time.Since(started))
	return &Answer{Text: text, Sources: hits}, nil
}

// AskStream behaves like Ask but hands answer fragments to onChunk as they arrive.
// Generators that cannot stream deliver the whole answer as one fragment.
func (e *QueryEngine) AskStream(ctx context.Context, query string, onChunk func(chunk string) error) (*Answer, error) {
	hits, messages, err := e.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	streamer, ok := e.generator.(StreamGenerator)
	if !ok {
		text, err := e.generator.Complete(genCtx, messages)
		if err != nil {
			return nil, classifyGeneration(err)
		}
		if err := onChunk(text); err != nil {
			return nil, err
		}
		return &Answer{Text: text, Sources: hits}, nil
	}

	text, err := streamer.StreamComplete(genCtx, messages, onChunk)
	if err != nil {
		return nil, classifyGeneration(err)
	}
	return &Answer{Text: text, Sources: hits}, nil
}

// retrieve validates the query and returns the nearest chunks plus the prompt built from them.
func (e *QueryEngine) retrieve(ctx context.Context, query string) ([]vectorindex.Hit, []ai.ChatMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, fmt.Errorf("%w: query is empty", ragerr.ErrInvalidInput)
	}
	if !e.generator.HasCredential() {
		return nil, nil, fmt.Errorf("%w: no api key configured", ragerr.ErrAuthentication)
	}
	if err := e.Load(ctx); err != nil {
		return nil, nil, err
	}
	idx := e.index()

	vectors, err := e.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query: %v", ragerr.ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, nil, fmt.Errorf("%w: query: got %d vectors", ragerr.ErrEmbedding, len(vectors))
	}

	hits, err := idx.Nearest(vectors[0], e.topK)
	if err != nil {
		return nil, nil, err
	}
	return hits, BuildPrompt(query, hits), nil
}

func (e *QueryEngine) index() *vectorindex.Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx
}

// BuildPrompt lays out the system instruction, one block per retrieved chunk and the question.
func BuildPrompt(query string, hits []vectorindex.Hit) []ai.ChatMessage {
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, h := range hits {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "[source: %s, page %d]\n", h.Metadata.Source, h.Metadata.Page)
		b.WriteString(h.Text)
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")

	return []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: systemInstruction},
		{Role: ai.RoleUser, Content: b.String()},
	}
}

func classifyGeneration(err error) error {
	if errors.Is(err, ragerr.ErrAuthentication) || errors.Is(err, ragerr.ErrGeneration) {
		return err
	}
	return fmt.Errorf("%w: %v", ragerr.ErrGeneration, err)
}

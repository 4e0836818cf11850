package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

// stubEmbedder maps each text to a vector derived from its length and first rune.
// failOn makes the call containing that text fail.
type stubEmbedder struct {
	id     string
	failOn string

	mu    sync.Mutex
	calls [][]string
}

func (s *stubEmbedder) ID() string {
	if s.id == "" {
		return "stub:3"
	}
	return s.id
}

func (s *stubEmbedder) Dimension() int { return 3 }

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), texts...))
	s.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if s.failOn != "" && t == s.failOn {
			return nil, errors.New("provider rejected input")
		}
		out[i] = stubVector(t)
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func stubVector(t string) []float32 {
	var first float32
	for _, r := range t {
		first = float32(r)
		break
	}
	return []float32{float32(len(t)), first, 1}
}

type memStore struct {
	saved   *vectorindex.Index
	saves   int
	loadErr error
}

func (m *memStore) Save(ctx context.Context, idx *vectorindex.Index) error {
	m.saved = idx
	m.saves++
	return nil
}

func (m *memStore) Load(ctx context.Context) (*vectorindex.Index, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.saved == nil {
		return nil, fmt.Errorf("%w: nothing saved", ragerr.ErrIndexNotFound)
	}
	return m.saved, nil
}

func (m *memStore) Describe() string { return "memory" }

type stubGenerator struct {
	key    string
	answer string
	err    error
	// block waits for ctx to finish instead of answering.
	block bool

	mu       sync.Mutex
	calls    int
	messages []ai.ChatMessage
}

func (g *stubGenerator) HasCredential() bool { return g.key != "" }
func (g *stubGenerator) Model() string       { return "stub-model" }

func (g *stubGenerator) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	g.mu.Lock()
	g.calls++
	g.messages = messages
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type streamingGenerator struct {
	stubGenerator
	parts []string
}

func (g *streamingGenerator) StreamComplete(
	ctx context.Context,
	messages []ai.ChatMessage,
	onChunk func(chunk string) error,
) (string, error) {
	full := ""
	for _, p := range g.parts {
		if err := onChunk(p); err != nil {
			return "", err
		}
		full += p
	}
	return full, nil
}

func makeChunks(texts ...string) []model.Chunk {
	chunks := make([]model.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = model.Chunk{
			Text:     t,
			Metadata: model.ChunkMetadata{Source: "doc.pdf", Page: 1, Position: i, Offset: i * 10},
		}
	}
	return chunks
}

var (
	_ vectorindex.Store = (*memStore)(nil)
	_ ai.Embedder       = (*stubEmbedder)(nil)
	_ StreamGenerator   = (*streamingGenerator)(nil)
)

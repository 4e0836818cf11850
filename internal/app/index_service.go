package app

import (
	"context"
	"fmt"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/chunker"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

const defaultEmbeddingBatchSize = 10

type IndexService struct {
	embedder  ai.Embedder
	store     vectorindex.Store
	batchSize int
	log       logger.Logger
}

func NewIndexService(embedder ai.Embedder, store vectorindex.Store, batchSize int, log logger.Logger) *IndexService {
	if batchSize <= 0 {
		batchSize = defaultEmbeddingBatchSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &IndexService{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		log:       log,
	}
}

// BuildFromFile loads a chunk file and builds the index from it.
func (s *IndexService) BuildFromFile(ctx context.Context, chunkFile string) (*vectorindex.Index, error) {
	chunks, err := chunker.LoadFile(chunkFile)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, chunks)
}

// Build embeds every chunk in order and replaces the stored index. Any failure
// aborts the whole build before anything is saved.
func (s *IndexService) Build(ctx context.Context, chunks []model.Chunk) (*vectorindex.Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", ragerr.ErrInvalidInput)
	}

	dim := s.embedder.Dimension()
	entries := make([]vectorindex.Entry, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ragerr.ErrEmbedding, batch[0].Metadata.Position, err)
		}
		if len(vectors) != len(batch) {
			pos := batch[0].Metadata.Position
			if len(vectors) < len(batch) {
				pos = batch[len(vectors)].Metadata.Position
			}
			return nil, fmt.Errorf("%w: chunk %d: got %d vectors for %d texts",
				ragerr.ErrEmbedding, pos, len(vectors), len(batch))
		}
		for i, vec := range vectors {
			if dim > 0 && len(vec) != dim {
				return nil, fmt.Errorf("%w: chunk %d: dimension %d, expected %d",
					ragerr.ErrEmbedding, batch[i].Metadata.Position, len(vec), dim)
			}
			entries = append(entries, vectorindex.Entry{
				Vector:   vec,
				Text:     batch[i].Text,
				Metadata: batch[i].Metadata,
			})
		}
		s.log.Debug("embedded batch", "from", start, "to", end)
	}

	idx, err := vectorindex.Build(s.embedder.ID(), entries)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index failed: %w", err)
	}
	s.log.Info("index built",
		"store", s.store.Describe(),
		"embedder", idx.Manifest().Embedder,
		"entries", idx.Len(),
	)
	return idx, nil
}

package app

import (
	"context"
	"fmt"

	"gopherai-rag/internal/chunker"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/model"
)

type ChunkService struct {
	size    int
	overlap int
	log     logger.Logger
}

func NewChunkService(size, overlap int, log logger.Logger) *ChunkService {
	if log == nil {
		log = logger.Discard()
	}
	return &ChunkService{size: size, overlap: overlap, log: log}
}

// Run extracts documentPath, splits it and writes the chunks to chunkFile.
func (s *ChunkService) Run(ctx context.Context, documentPath, chunkFile string) ([]model.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := chunker.LoadDocument(documentPath)
	if err != nil {
		return nil, err
	}
	chunks, err := chunker.ChunkDocument(doc, s.size, s.overlap)
	if err != nil {
		return nil, err
	}
	if err := chunker.SaveFile(chunkFile, chunks); err != nil {
		return nil, fmt.Errorf("save chunk file failed: %w", err)
	}
	s.log.Info("document chunked",
		"document", documentPath,
		"pages", len(doc.PageStarts),
		"chunks", len(chunks),
		"chunk_file", chunkFile,
	)
	return chunks, nil
}

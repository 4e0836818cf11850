package app

import (
	"context"
	"fmt"
	"strings"

	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
)

// Reloader swaps in a freshly built index.
type Reloader interface {
	Reload(ctx context.Context) error
}

// IndexPipeline runs chunking and indexing back to back for queued index jobs.
// Jobs may only name documents inside dataDir.
type IndexPipeline struct {
	chunks    *ChunkService
	index     *IndexService
	dataDir   string
	chunkFile string
	reloader  Reloader
}

func NewIndexPipeline(chunks *ChunkService, index *IndexService, dataDir, chunkFile string, reloader Reloader) *IndexPipeline {
	return &IndexPipeline{
		chunks:    chunks,
		index:     index,
		dataDir:   dataDir,
		chunkFile: chunkFile,
		reloader:  reloader,
	}
}

func (p *IndexPipeline) RunJob(ctx context.Context, job model.IndexJob) error {
	if strings.TrimSpace(job.DocumentPath) == "" {
		return fmt.Errorf("%w: index job %s has no document path", ragerr.ErrInvalidInput, job.ID)
	}
	path, err := ConfineToDir(p.dataDir, job.DocumentPath)
	if err != nil {
		return fmt.Errorf("index job %s: %w", job.ID, err)
	}
	chunks, err := p.chunks.Run(ctx, path, p.chunkFile)
	if err != nil {
		return err
	}
	if _, err := p.index.Build(ctx, chunks); err != nil {
		return err
	}
	if p.reloader != nil {
		if err := p.reloader.Reload(ctx); err != nil {
			logger.FromContext(ctx).Warn("engine reload after index job failed", "id", job.ID, "err", err)
		}
	}
	return nil
}

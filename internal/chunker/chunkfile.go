package chunker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
)

// SaveFile writes chunks as an indented JSON array, creating parent directories.
func SaveFile(path string, chunks []model.Chunk) error {
	if chunks == nil {
		chunks = []model.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunks failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chunk file directory failed: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write chunk file failed: %w", err)
	}
	return nil
}

// LoadFile reads a chunk file written by SaveFile.
func LoadFile(path string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read chunk file %s: %v", ragerr.ErrDocumentRead, path, err)
	}
	var chunks []model.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("%w: parse chunk file %s: %v", ragerr.ErrDocumentRead, path, err)
	}
	return chunks, nil
}

package model

import (
	"encoding/json"
	"time"
)

// IndexEntry stores one indexed chunk and its embedding for the MySQL index backend.
// Embedding is stored as JSON array of float32 for portability.
type IndexEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Position  int       `gorm:"not null;uniqueIndex" json:"position"`
	Source    string    `gorm:"size:512;not null" json:"source"`
	Page      int       `gorm:"not null" json:"page"`
	Offset    int       `gorm:"not null" json:"offset"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Embedding string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexManifest is the single-row header describing the stored index.
type IndexManifest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Embedder  string    `gorm:"size:256;not null" json:"embedder"`
	Dimension int       `gorm:"not null" json:"dimension"`
	Count     int       `gorm:"not null" json:"count"`
	BuiltAt   time.Time `json:"built_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (e *IndexEntry) EmbeddingVector() []float32 {
	if e.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (e *IndexEntry) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		e.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Embedding = string(b)
}

// Metadata returns the chunk metadata carried by the row.
func (e *IndexEntry) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Source:   e.Source,
		Page:     e.Page,
		Position: e.Position,
		Offset:   e.Offset,
	}
}

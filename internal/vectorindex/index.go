// Package vectorindex holds the exact nearest-neighbour index over chunk embeddings
// and the stores that persist it.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
)

// Manifest describes how an index was built.
type Manifest struct {
	Embedder  string    `json:"embedder"`
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	BuiltAt   time.Time `json:"built_at"`
}

// Entry is one (vector, text, metadata) triple.
type Entry struct {
	Vector   []float32           `json:"vector"`
	Text     string              `json:"text"`
	Metadata model.ChunkMetadata `json:"metadata"`
}

// Hit is a retrieved entry; smaller Distance means more similar.
type Hit struct {
	Text     string              `json:"text"`
	Metadata model.ChunkMetadata `json:"metadata"`
	Distance float64             `json:"distance"`
}

// Index is immutable once built.
type Index struct {
	manifest Manifest
	entries  []Entry
}

// Store persists a whole index. Save replaces whatever was stored before.
type Store interface {
	Save(ctx context.Context, idx *Index) error
	Load(ctx context.Context) (*Index, error)
	Describe() string
}

// Build validates that every entry has the same dimension and wraps them in an index.
func Build(embedderID string, entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries to index", ragerr.ErrInvalidInput)
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: entry 0 has an empty vector", ragerr.ErrEmbedding)
	}
	for i := range entries {
		if len(entries[i].Vector) != dim {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, expected %d",
				ragerr.ErrEmbedding, i, len(entries[i].Vector), dim)
		}
	}
	return &Index{
		manifest: Manifest{
			Embedder:  embedderID,
			Dimension: dim,
			Count:     len(entries),
			BuiltAt:   time.Now().UTC(),
		},
		entries: entries,
	}, nil
}

// Restore rebuilds an index read back from a store, checking it against its manifest.
func Restore(manifest Manifest, entries []Entry) (*Index, error) {
	if manifest.Count != len(entries) {
		return nil, fmt.Errorf("%w: manifest lists %d entries, found %d",
			ragerr.ErrIndexNotFound, manifest.Count, len(entries))
	}
	for i := range entries {
		if len(entries[i].Vector) != manifest.Dimension {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, manifest says %d",
				ragerr.ErrIndexNotFound, i, len(entries[i].Vector), manifest.Dimension)
		}
	}
	return &Index{manifest: manifest, entries: entries}, nil
}

func (idx *Index) Manifest() Manifest { return idx.manifest }

func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns the entries in build order. Callers must not modify them.
func (idx *Index) Entries() []Entry { return idx.entries }

// Nearest returns up to k entries ordered by ascending cosine distance.
// Ties keep build order.
func (idx *Index) Nearest(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.manifest.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ragerr.ErrEmbedderMismatch, len(query), idx.manifest.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(idx.entries))
	for i := range idx.entries {
		hits[i] = Hit{
			Text:     idx.entries[i].Text,
			Metadata: idx.entries[i].Metadata,
			Distance: CosineDistance(query, idx.entries[i].Vector),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// CosineDistance is 1 - cosine similarity; a zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

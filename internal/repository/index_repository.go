package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

const insertBatchSize = 200

// IndexRepository stores the vector index in MySQL. It satisfies vectorindex.Store.
type IndexRepository struct {
	db *gorm.DB
}

func NewIndexRepository(db *gorm.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

func (r *IndexRepository) Describe() string {
	return "mysql"
}

func (r *IndexRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&model.IndexManifest{}, &model.IndexEntry{}); err != nil {
		return fmt.Errorf("auto migrate index tables failed: %w", err)
	}
	return nil
}

// Save replaces the stored index in a single transaction.
func (r *IndexRepository) Save(ctx context.Context, idx *vectorindex.Index) error {
	if idx == nil {
		return fmt.Errorf("%w: nil index", ragerr.ErrInvalidInput)
	}
	m := idx.Manifest()
	rows := make([]model.IndexEntry, idx.Len())
	for i, e := range idx.Entries() {
		rows[i] = model.IndexEntry{
			Position: e.Metadata.Position,
			Source:   e.Metadata.Source,
			Page:     e.Metadata.Page,
			Offset:   e.Metadata.Offset,
			Content:  e.Text,
		}
		rows[i].SetEmbedding(e.Vector)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.IndexEntry{}).Error; err != nil {
			return fmt.Errorf("clear index entries failed: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.IndexManifest{}).Error; err != nil {
			return fmt.Errorf("clear index manifest failed: %w", err)
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("create index entries failed: %w", err)
		}
		manifest := model.IndexManifest{
			Embedder:  m.Embedder,
			Dimension: m.Dimension,
			Count:     m.Count,
			BuiltAt:   m.BuiltAt,
		}
		if err := tx.Create(&manifest).Error; err != nil {
			return fmt.Errorf("create index manifest failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save index failed: %w", err)
	}
	return nil
}

func (r *IndexRepository) Load(ctx context.Context) (*vectorindex.Index, error) {
	db := r.db.WithContext(ctx)

	var manifest model.IndexManifest
	if err := db.Order("id DESC").First(&manifest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no index stored in mysql", ragerr.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("%w: load index manifest: %v", ragerr.ErrIndexNotFound, err)
	}

	var rows []model.IndexEntry
	if err := db.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list index entries: %v", ragerr.ErrIndexNotFound, err)
	}

	entries := make([]vectorindex.Entry, len(rows))
	for i := range rows {
		entries[i] = vectorindex.Entry{
			Vector:   rows[i].EmbeddingVector(),
			Text:     rows[i].Content,
			Metadata: rows[i].Metadata(),
		}
	}
	return vectorindex.Restore(vectorindex.Manifest{
		Embedder:  manifest.Embedder,
		Dimension: manifest.Dimension,
		Count:     manifest.Count,
		BuiltAt:   manifest.BuiltAt,
	}, entries)
}

var _ vectorindex.Store = (*IndexRepository)(nil)

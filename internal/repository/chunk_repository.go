package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

// ListTextsByUserID returns the chunk texts of every document the user owns,
// in document then chunk order. This is the corpus an index rebuild embeds;
// scoping it by user here is what keeps one user's chunks out of another
// user's index.
func (r *ChunkRepository) ListTextsByUserID(userID uint) ([]string, error) {
	var texts []string
	err := r.db.Model(&model.DocumentChunk{}).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", userID).
		Order("document_chunks.document_id, document_chunks.chunk_index").
		Pluck("document_chunks.chunk_text", &texts).Error
	if err != nil {
		return nil, fmt.Errorf("list chunk texts by user failed: %w", err)
	}
	return texts, nil
}

func (r *ChunkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.DocumentChunk{}).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count chunks by user failed: %w", err)
	}
	return count, nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

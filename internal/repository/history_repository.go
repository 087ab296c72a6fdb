package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(entry *model.QueryHistory) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create query history failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's Q&A history, newest first.
func (r *HistoryRepository) ListByUserID(userID uint) ([]model.QueryHistory, error) {
	var list []model.QueryHistory
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list query history failed: %w", err)
	}
	return list, nil
}

func (r *HistoryRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.QueryHistory{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count query history failed: %w", err)
	}
	return count, nil
}

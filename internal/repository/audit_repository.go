package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(event *model.AuditEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create audit event failed: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecentByUserID(userID uint, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []model.AuditEvent
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list audit events failed: %w", err)
	}
	return list, nil
}

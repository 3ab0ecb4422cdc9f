package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/ai/domain"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Record(ctx context.Context, record *domain.PromptRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("record prompt: %w", err)
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]*domain.PromptRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []*domain.PromptRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list prompt history: %w", err)
	}
	return records, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/payment/domain"
)

type repo struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func New(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Repository {
	return &repo{db: db, genID: genID, clock: clk}
}

func (r *repo) RecordEvent(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	if event.ID == 0 {
		event.ID = r.genID.Generate()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = r.clock.Now().UTC()
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("record payment event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListEvents(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []*domain.WebhookEvent
	if err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	return events, nil
}

func (r *repo) PurgeOld(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		keepDays = 90
	}
	cutoff := r.clock.Now().UTC().AddDate(0, 0, -keepDays)
	result := r.db.WithContext(ctx).
		Where("received_at < ?", cutoff).
		Delete(&domain.WebhookEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge payment events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

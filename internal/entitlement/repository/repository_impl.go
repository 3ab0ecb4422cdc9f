package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intellpharma/pharmastock/internal/entitlement/domain"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, ownerID snowflake.ID) (*domain.Entitlement, error) {
	var record domain.Entitlement
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEntitlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the record atomically keyed by owner, so concurrent
// reconcile triggers cannot produce two rows for one tenant.
func (r *repo) Upsert(ctx context.Context, record *domain.Entitlement) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier",
			"status",
			"provider_customer_id",
			"provider_subscription_id",
			"extra_branches",
			"auto_renew",
			"current_period_end",
			"canceled_at",
			"synced_at",
			"updated_at",
		}),
	}).Create(record).Error
}

func (r *repo) ListForPoll(ctx context.Context, before time.Time) ([]*domain.Entitlement, error) {
	var records []*domain.Entitlement
	err := r.db.WithContext(ctx).
		Where("provider_subscription_id <> ''").
		Where("status IN ?", []domain.Status{domain.StatusActive, domain.StatusCanceling, domain.StatusPendingSync}).
		Where("current_period_end IS NULL OR current_period_end < ?", before).
		Find(&records).Error
	return records, err
}

func (r *repo) LapseExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("status IN ?", []domain.Status{domain.StatusActive, domain.StatusCanceling}).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", cutoff).
		Updates(map[string]any{
			"status":     domain.StatusLapsed,
			"updated_at": cutoff,
		})
	return tx.RowsAffected, tx.Error
}

// InsertGrant records a purchased extra-branch pack. A replayed event
// with the same idempotency key inserts nothing.
func (r *repo) InsertGrant(ctx context.Context, grant *domain.Grant) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(grant)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repo) SumGrants(ctx context.Context, ownerID snowflake.ID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&domain.Grant{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *repo) DeleteGrants(ctx context.Context, ownerID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&domain.Grant{}).Error
}

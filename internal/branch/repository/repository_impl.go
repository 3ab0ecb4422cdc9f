package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/branch/domain"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, branch *domain.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Branch, error) {
	var branch domain.Branch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBranchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID snowflake.ID, activeOnly bool) ([]*domain.Branch, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var branches []*domain.Branch
	err := query.Order("created_at ASC").Find(&branches).Error
	return branches, err
}

func (r *repo) CountActiveByOwner(ctx context.Context, ownerID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Branch{}).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Branch{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrBranchNotFound
	}
	return nil
}

func (r *repo) AssignStaff(ctx context.Context, member *domain.StaffMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repo) ListStaff(ctx context.Context, branchID snowflake.ID) ([]*domain.StaffMember, error) {
	var members []*domain.StaffMember
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *repo) FindAssignment(ctx context.Context, branchID, userID snowflake.ID) (*domain.StaffMember, error) {
	var member domain.StaffMember
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND user_id = ?", branchID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repo) RemoveStaff(ctx context.Context, branchID, userID snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Where("branch_id = ? AND user_id = ?", branchID, userID).
		Delete(&domain.StaffMember{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrStaffNotFound
	}
	return nil
}

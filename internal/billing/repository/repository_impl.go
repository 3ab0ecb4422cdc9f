package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/billing/domain"
)

type repo struct{}

func New() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListByBranch(ctx context.Context, db *gorm.DB, branchID snowflake.ID, limit int, before *time.Time) ([]*domain.Invoice, error) {
	query := db.WithContext(ctx).Where("branch_id = ?", branchID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var invoices []*domain.Invoice
	err := query.Order("created_at DESC").Limit(limit).Find(&invoices).Error
	return invoices, err
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, branchID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("branch_id = ?", branchID).
		Count(&count).Error
	return count + 1, err
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, branchID snowflake.ID, from, to time.Time) (*domain.GSTSummary, error) {
	type row struct {
		InvoiceCount int64
		Taxable      decimal.Decimal
		CGST         decimal.Decimal
		SGST         decimal.Decimal
		IGST         decimal.Decimal
		TotalTax     decimal.Decimal
		GrandTotal   decimal.Decimal
	}

	var result row
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
		Select(`COUNT(*) AS invoice_count,
			COALESCE(SUM(subtotal - discount_amount), 0) AS taxable,
			COALESCE(SUM(cgst_amount), 0) AS cgst,
			COALESCE(SUM(sgst_amount), 0) AS sgst,
			COALESCE(SUM(igst_amount), 0) AS igst,
			COALESCE(SUM(total_tax), 0) AS total_tax,
			COALESCE(SUM(grand_total), 0) AS grand_total`).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &domain.GSTSummary{
		From:         from,
		To:           to,
		InvoiceCount: result.InvoiceCount,
		TaxableValue: result.Taxable,
		CGST:         result.CGST,
		SGST:         result.SGST,
		IGST:         result.IGST,
		TotalTax:     result.TotalTax,
		GrandTotal:   result.GrandTotal,
	}, nil
}

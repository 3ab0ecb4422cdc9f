package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/inventory/domain"
)

type repo struct{}

func New() domain.Repository {
	return &repo{}
}

func (r *repo) CreateProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) ListProducts(ctx context.Context, db *gorm.DB, branchID snowflake.ID, search string) ([]*domain.Product, error) {
	query := db.WithContext(ctx).Where("branch_id = ?", branchID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(sku) LIKE ?", like, like)
	}

	var products []*domain.Product
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *repo) UpdateProductFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *repo) DeleteProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.StockBatch{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}

func (r *repo) CreateBatch(ctx context.Context, db *gorm.DB, batch *domain.StockBatch) error {
	return db.WithContext(ctx).Create(batch).Error
}

func (r *repo) ListBatchesFEFO(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]*domain.StockBatch, error) {
	var batches []*domain.StockBatch
	err := db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Order("expiry_date IS NULL, expiry_date ASC, created_at ASC").
		Find(&batches).Error
	return batches, err
}

func (r *repo) AdjustBatchQuantity(ctx context.Context, db *gorm.DB, batchID snowflake.ID, delta int) error {
	tx := db.WithContext(ctx).
		Model(&domain.StockBatch{}).
		Where("id = ? AND quantity + ? >= 0", batchID, delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		var exists int64
		if err := db.WithContext(ctx).Model(&domain.StockBatch{}).Where("id = ?", batchID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrBatchNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *repo) TotalStock(ctx context.Context, db *gorm.DB, productID snowflake.ID) (int, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.StockBatch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *repo) LowStock(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.StockLevel, error) {
	var products []*domain.Product
	if err := db.WithContext(ctx).Where("branch_id = ?", branchID).Find(&products).Error; err != nil {
		return nil, err
	}

	var levels []*domain.StockLevel
	for _, product := range products {
		total, err := r.TotalStock(ctx, db, product.ID)
		if err != nil {
			return nil, err
		}
		if total <= product.ReorderLevel {
			levels = append(levels, &domain.StockLevel{Product: *product, Quantity: total})
		}
	}
	return levels, nil
}

func (r *repo) ExpiringSoon(ctx context.Context, db *gorm.DB, branchID snowflake.ID, before time.Time) ([]*domain.StockBatch, error) {
	var batches []*domain.StockBatch
	err := db.WithContext(ctx).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.branch_id = ?", branchID).
		Where("stock_batches.quantity > 0").
		Where("stock_batches.expiry_date IS NOT NULL AND stock_batches.expiry_date < ?", before).
		Order("stock_batches.expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the DB handle so billing can run stock
// deduction inside its own invoice transaction.
type Repository interface {
	CreateProduct(ctx context.Context, db *gorm.DB, product *Product) error
	FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, db *gorm.DB, branchID snowflake.ID, search string) ([]*Product, error)
	UpdateProductFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeleteProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CreateBatch(ctx context.Context, db *gorm.DB, batch *StockBatch) error
	// ListBatchesFEFO returns a product's batches with stock remaining,
	// earliest expiry first, batches without expiry last.
	ListBatchesFEFO(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]*StockBatch, error)
	// AdjustBatchQuantity applies a relative delta and fails instead of
	// letting the quantity go negative.
	AdjustBatchQuantity(ctx context.Context, db *gorm.DB, batchID snowflake.ID, delta int) error

	TotalStock(ctx context.Context, db *gorm.DB, productID snowflake.ID) (int, error)
	LowStock(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*StockLevel, error)
	ExpiringSoon(ctx context.Context, db *gorm.DB, branchID snowflake.ID, before time.Time) ([]*StockBatch, error)
}

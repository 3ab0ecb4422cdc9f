package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	CreateProduct(ctx context.Context, branchID snowflake.ID, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, branchID, productID snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, branchID snowflake.ID, search string) ([]*Product, error)
	UpdateProduct(ctx context.Context, branchID, productID snowflake.ID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, branchID, productID snowflake.ID) error

	AddBatch(ctx context.Context, branchID, productID snowflake.ID, req AddBatchRequest) (*StockBatch, error)
	ListBatches(ctx context.Context, branchID, productID snowflake.ID) ([]*StockBatch, error)
	AdjustStock(ctx context.Context, branchID, batchID snowflake.ID, delta int) error
	TotalStock(ctx context.Context, productID snowflake.ID) (int, error)

	LowStock(ctx context.Context, branchID snowflake.ID) ([]*StockLevel, error)
	ExpiringSoon(ctx context.Context, branchID snowflake.ID, within time.Duration) ([]*StockBatch, error)

	// DeductFEFO removes quantity from a product's batches inside the
	// caller's transaction, draining the earliest expiry first.
	DeductFEFO(ctx context.Context, tx *gorm.DB, productID snowflake.ID, quantity int) ([]Deduction, error)
}

type CreateProductRequest struct {
	Name         string
	SKU          string
	HSNCode      string
	Manufacturer string
	Category     string
	UnitPrice    decimal.Decimal
	GSTRate      decimal.Decimal
	ReorderLevel int
}

type UpdateProductRequest struct {
	Name         *string
	HSNCode      *string
	Manufacturer *string
	Category     *string
	UnitPrice    *decimal.Decimal
	GSTRate      *decimal.Decimal
	ReorderLevel *int
}

type AddBatchRequest struct {
	BatchNumber string
	Quantity    int
	ExpiryDate  *time.Time
}

// Package domain contains product and stock batch types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product is a sellable item carried by one branch.
type Product struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	BranchID     snowflake.ID    `gorm:"column:branch_id;not null;uniqueIndex:idx_products_branch_sku"`
	Name         string          `gorm:"column:name;type:text;not null"`
	SKU          string          `gorm:"column:sku;type:text;not null;uniqueIndex:idx_products_branch_sku"`
	HSNCode      string          `gorm:"column:hsn_code;type:text;not null;default:''"`
	Manufacturer string          `gorm:"column:manufacturer;type:text;not null;default:''"`
	Category     string          `gorm:"column:category;type:text;not null;default:''"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	GSTRate      decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null;default:0"`
	ReorderLevel int             `gorm:"column:reorder_level;not null;default:10"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// StockBatch is one received lot of a product with its own expiry.
type StockBatch struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	ProductID   snowflake.ID `gorm:"column:product_id;not null;index"`
	BatchNumber string       `gorm:"column:batch_number;type:text;not null"`
	Quantity    int          `gorm:"column:quantity;not null;default:0"`
	ExpiryDate  *time.Time   `gorm:"column:expiry_date;index"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StockBatch) TableName() string { return "stock_batches" }

// StockLevel is a product joined with its remaining quantity.
type StockLevel struct {
	Product  Product
	Quantity int
}

// Deduction records which batch a sold quantity came out of.
type Deduction struct {
	BatchID     snowflake.ID
	BatchNumber string
	Quantity    int
}

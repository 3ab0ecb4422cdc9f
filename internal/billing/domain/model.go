// Package domain contains invoice types for point-of-sale billing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settled a POS invoice.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

// Valid reports whether the payment method is a known value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	default:
		return false
	}
}

// Invoice is one completed point-of-sale bill.
type Invoice struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	BranchID        snowflake.ID    `gorm:"column:branch_id;not null;uniqueIndex:idx_invoices_number;index:idx_invoices_branch_created"`
	InvoiceNumber   string          `gorm:"column:invoice_number;type:text;not null;uniqueIndex:idx_invoices_number"`
	CustomerName    string          `gorm:"column:customer_name;type:text;not null;default:''"`
	CustomerPhone   string          `gorm:"column:customer_phone;type:text;not null;default:''"`
	CustomerGSTIN   string          `gorm:"column:customer_gstin;type:text;not null;default:''"`
	PaymentMethod   PaymentMethod   `gorm:"column:payment_method;type:text;not null;default:'CASH'"`
	PlaceOfSupply   string          `gorm:"column:place_of_supply;type:text;not null;default:''"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	CGSTAmount      decimal.Decimal `gorm:"column:cgst_amount;type:numeric(12,2);not null;default:0"`
	SGSTAmount      decimal.Decimal `gorm:"column:sgst_amount;type:numeric(12,2);not null;default:0"`
	IGSTAmount      decimal.Decimal `gorm:"column:igst_amount;type:numeric(12,2);not null;default:0"`
	TotalTax        decimal.Decimal `gorm:"column:total_tax;type:numeric(12,2);not null;default:0"`
	GrandTotal      decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null;default:0"`
	CreatedBy       snowflake.ID    `gorm:"column:created_by;not null"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_invoices_branch_created"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one sold line frozen at sale time. Product fields are
// denormalized so later catalog edits never rewrite history.
type InvoiceItem struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	InvoiceID       snowflake.ID    `gorm:"column:invoice_id;not null;index"`
	ProductID       snowflake.ID    `gorm:"column:product_id;not null"`
	ProductName     string          `gorm:"column:product_name;type:text;not null"`
	HSNCode         string          `gorm:"column:hsn_code;type:text;not null;default:''"`
	BatchNumber     string          `gorm:"column:batch_number;type:text;not null;default:''"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	GSTRate         decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null;default:0"`
	TaxableValue    decimal.Decimal `gorm:"column:taxable_value;type:numeric(12,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null;default:0"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// GSTSummary aggregates tax collected over a period for GST filing.
type GSTSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	InvoiceCount int64           `json:"invoice_count"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

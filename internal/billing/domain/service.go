package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	// CreateInvoice computes totals from the cart, deducts stock and
	// persists the invoice, all in one transaction.
	CreateInvoice(ctx context.Context, branchID, userID snowflake.ID, req CreateInvoiceRequest) (*Invoice, error)
	GetInvoice(ctx context.Context, branchID, invoiceID snowflake.ID) (*Invoice, error)
	ListInvoices(ctx context.Context, branchID snowflake.ID, limit int, before *time.Time) ([]*Invoice, error)
	GSTSummary(ctx context.Context, branchID snowflake.ID, from, to time.Time) (*GSTSummary, error)
	// ReceiptPDF renders a printable receipt for an invoice.
	ReceiptPDF(ctx context.Context, branchID, invoiceID snowflake.ID) ([]byte, error)
}

type CartLine struct {
	ProductID       snowflake.ID
	Quantity        int
	DiscountPercent decimal.Decimal
}

type CreateInvoiceRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerGSTIN   string
	PaymentMethod   PaymentMethod
	PlaceOfSupply   string
	DiscountPercent decimal.Decimal
	Lines           []CartLine
}

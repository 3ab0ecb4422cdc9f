// Package pdf renders printable GST receipts.
package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// ReceiptItem is one line on the printed receipt.
type ReceiptItem struct {
	Name      string
	HSNCode   string
	Batch     string
	Quantity  int
	UnitPrice decimal.Decimal
	GSTRate   decimal.Decimal
	Total     decimal.Decimal
}

// ReceiptData carries everything printed on a receipt.
type ReceiptData struct {
	InvoiceNumber string
	IssuedAt      time.Time
	BranchName    string
	BranchAddress string
	BranchGSTIN   string
	CustomerName  string
	CustomerPhone string
	PaymentMethod string
	Items         []ReceiptItem
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
	GrandTotal    decimal.Decimal
}

// Renderer produces receipt documents.
type Renderer interface {
	Receipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type Provider struct{}

func NewProvider() Renderer {
	return &Provider{}
}

func (p *Provider) Receipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	_ = ctx

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Tax Invoice", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.InvoiceNumber, props.Text{
			Size:  10,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(data.BranchName, props.Text{Style: fontstyle.Bold}),
			text.New(data.BranchAddress, props.Text{Top: 5}),
			text.New("GSTIN: "+data.BranchGSTIN, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(data.CustomerName, props.Text{Top: 5}),
			text.New(data.CustomerPhone, props.Text{Top: 9}),
			text.New("Date: "+data.IssuedAt.Format("02 Jan 2006 15:04"), props.Text{Top: 13}),
			text.New("Paid by: "+data.PaymentMethod, props.Text{Top: 17}),
		),
	)

	m.AddRow(8,
		text.NewCol(4, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "HSN", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "GST%", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(7,
			text.NewCol(4, item.Name, props.Text{Size: 9}),
			text.NewCol(2, item.HSNCode, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, item.GSTRate.StringFixed(0), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Total.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", data.Subtotal},
		{"Discount", data.Discount.Neg()},
		{"CGST", data.CGST},
		{"SGST", data.SGST},
		{"IGST", data.IGST},
	}
	for _, entry := range summary {
		if entry.value.IsZero() && entry.label != "Subtotal" {
			continue
		}
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, entry.label, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, entry.value.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, data.GrandTotal.StringFixed(2), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return doc.GetBytes(), nil
}

var Module = fx.Module("providers.pdf",
	fx.Provide(NewProvider),
)

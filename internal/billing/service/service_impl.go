package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/billing/calc"
	"github.com/intellpharma/pharmastock/internal/billing/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
	"github.com/intellpharma/pharmastock/internal/observability/metrics"
	"github.com/intellpharma/pharmastock/internal/providers/pdf"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	branchRepo   branchdomain.Repository
	inventorysvc inventorydomain.Service
	pdf          pdf.Renderer
	metrics      *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository

	BranchRepo   branchdomain.Repository
	Inventorysvc inventorydomain.Service
	PDF          pdf.Renderer
	Metrics      *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		branchRepo:   p.BranchRepo,
		inventorysvc: p.Inventorysvc,
		pdf:          p.PDF,
		metrics:      p.Metrics,
	}
}

func (s *Service) CreateInvoice(ctx context.Context, branchID, userID snowflake.ID, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if !validPercent(req.DiscountPercent) {
		return nil, domain.ErrInvalidDiscount
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := make([]*inventorydomain.Product, 0, len(req.Lines))
		calcLines := make([]calc.Line, 0, len(req.Lines))
		for _, line := range req.Lines {
			if line.Quantity < 1 {
				return inventorydomain.ErrInvalidQuantity
			}
			if !validPercent(line.DiscountPercent) {
				return domain.ErrInvalidDiscount
			}
			product, err := s.inventorysvc.GetProduct(ctx, branchID, line.ProductID)
			if err != nil {
				return err
			}
			products = append(products, product)
			calcLines = append(calcLines, calc.Line{
				UnitPrice:       product.UnitPrice,
				Quantity:        line.Quantity,
				DiscountPercent: line.DiscountPercent,
				TaxRatePercent:  product.GSTRate,
			})
		}

		totals := calc.Compute(calcLines, req.DiscountPercent)
		interState := isInterState(branch.StateCode, req.PlaceOfSupply)
		split := calc.SplitGST(totals.TotalTax, interState)

		seq, err := s.repo.NextSequence(ctx, tx, branchID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		invoice = &domain.Invoice{
			ID:              s.genID.Generate(),
			BranchID:        branchID,
			InvoiceNumber:   fmt.Sprintf("INV-%s-%05d", branchID.Base36(), seq),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
			CustomerGSTIN:   strings.ToUpper(strings.TrimSpace(req.CustomerGSTIN)),
			PaymentMethod:   req.PaymentMethod,
			PlaceOfSupply:   strings.TrimSpace(req.PlaceOfSupply),
			Subtotal:        totals.Subtotal,
			DiscountPercent: req.DiscountPercent,
			DiscountAmount:  totals.DiscountAmount,
			CGSTAmount:      split.CGST,
			SGSTAmount:      split.SGST,
			IGSTAmount:      split.IGST,
			TotalTax:        totals.TotalTax,
			GrandTotal:      totals.GrandTotal,
			CreatedBy:       userID,
			CreatedAt:       now,
		}

		for i, line := range req.Lines {
			deductions, err := s.inventorysvc.DeductFEFO(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			batchNumbers := make([]string, 0, len(deductions))
			for _, d := range deductions {
				batchNumbers = append(batchNumbers, d.BatchNumber)
			}

			lineResult := totals.Lines[i]
			invoice.Items = append(invoice.Items, domain.InvoiceItem{
				ID:              s.genID.Generate(),
				InvoiceID:       invoice.ID,
				ProductID:       line.ProductID,
				ProductName:     products[i].Name,
				HSNCode:         products[i].HSNCode,
				BatchNumber:     strings.Join(batchNumbers, ","),
				Quantity:        line.Quantity,
				UnitPrice:       products[i].UnitPrice,
				DiscountPercent: line.DiscountPercent,
				GSTRate:         products[i].GSTRate,
				TaxableValue:    lineResult.Taxable,
				TaxAmount:       lineResult.Tax,
				LineTotal:       lineResult.Total,
			})
		}

		return s.repo.Create(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceCreated(string(invoice.PaymentMethod))
	s.log.Info("invoice created",
		zap.String("branch_id", branchID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("grand_total", invoice.GrandTotal.String()),
	)
	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, branchID, invoiceID snowflake.ID) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.BranchID != branchID {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) ListInvoices(ctx context.Context, branchID snowflake.ID, limit int, before *time.Time) ([]*domain.Invoice, error) {
	return s.repo.ListByBranch(ctx, s.db, branchID, limit, before)
}

func (s *Service) GSTSummary(ctx context.Context, branchID snowflake.ID, from, to time.Time) (*domain.GSTSummary, error) {
	return s.repo.Summarize(ctx, s.db, branchID, from, to)
}

func (s *Service) ReceiptPDF(ctx context.Context, branchID, invoiceID snowflake.ID) ([]byte, error) {
	invoice, err := s.GetInvoice(ctx, branchID, invoiceID)
	if err != nil {
		return nil, err
	}
	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReceiptData{
		InvoiceNumber: invoice.InvoiceNumber,
		IssuedAt:      invoice.CreatedAt,
		BranchName:    branch.Name,
		BranchAddress: branch.Address,
		BranchGSTIN:   branch.GSTIN,
		CustomerName:  invoice.CustomerName,
		CustomerPhone: invoice.CustomerPhone,
		PaymentMethod: string(invoice.PaymentMethod),
		Subtotal:      invoice.Subtotal,
		Discount:      invoice.DiscountAmount,
		CGST:          invoice.CGSTAmount,
		SGST:          invoice.SGSTAmount,
		IGST:          invoice.IGSTAmount,
		GrandTotal:    invoice.GrandTotal,
	}
	for _, item := range invoice.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Name:      item.ProductName,
			HSNCode:   item.HSNCode,
			Batch:     item.BatchNumber,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			GSTRate:   item.GSTRate,
			Total:     item.LineTotal,
		})
	}

	return s.pdf.Receipt(ctx, data)
}

func validPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(decimal.NewFromInt(100))
}

func isInterState(branchState, placeOfSupply string) bool {
	branchState = strings.TrimSpace(branchState)
	placeOfSupply = strings.TrimSpace(placeOfSupply)
	return branchState != "" && placeOfSupply != "" && !strings.EqualFold(branchState, placeOfSupply)
}

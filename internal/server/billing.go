package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	billingdomain "github.com/intellpharma/pharmastock/internal/billing/domain"
	"github.com/intellpharma/pharmastock/pkg/db/pagination"
)

type InvoiceLineRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type CreateInvoiceRequest struct {
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerGSTIN   string               `json:"customer_gstin"`
	PaymentMethod   string               `json:"payment_method"`
	PlaceOfSupply   string               `json:"place_of_supply"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	Lines           []InvoiceLineRequest `json:"lines"`
}

type invoiceItemResponse struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	HSNCode         string          `json:"hsn_code,omitempty"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	GSTRate         decimal.Decimal `json:"gst_rate"`
	TaxableValue    decimal.Decimal `json:"taxable_value"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type invoiceResponse struct {
	ID              string                `json:"id"`
	InvoiceNumber   string                `json:"invoice_number"`
	CustomerName    string                `json:"customer_name,omitempty"`
	CustomerPhone   string                `json:"customer_phone,omitempty"`
	CustomerGSTIN   string                `json:"customer_gstin,omitempty"`
	PaymentMethod   string                `json:"payment_method"`
	PlaceOfSupply   string                `json:"place_of_supply,omitempty"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DiscountPercent decimal.Decimal       `json:"discount_percent"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	CGSTAmount      decimal.Decimal       `json:"cgst_amount"`
	SGSTAmount      decimal.Decimal       `json:"sgst_amount"`
	IGSTAmount      decimal.Decimal       `json:"igst_amount"`
	TotalTax        decimal.Decimal       `json:"total_tax"`
	GrandTotal      decimal.Decimal       `json:"grand_total"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []invoiceItemResponse `json:"items,omitempty"`
}

func toInvoiceResponse(inv *billingdomain.Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		CustomerPhone:   inv.CustomerPhone,
		CustomerGSTIN:   inv.CustomerGSTIN,
		PaymentMethod:   string(inv.PaymentMethod),
		PlaceOfSupply:   inv.PlaceOfSupply,
		Subtotal:        inv.Subtotal,
		DiscountPercent: inv.DiscountPercent,
		DiscountAmount:  inv.DiscountAmount,
		CGSTAmount:      inv.CGSTAmount,
		SGSTAmount:      inv.SGSTAmount,
		IGSTAmount:      inv.IGSTAmount,
		TotalTax:        inv.TotalTax,
		GrandTotal:      inv.GrandTotal,
		CreatedAt:       inv.CreatedAt,
	}
	for _, item := range inv.Items {
		out.Items = append(out.Items, invoiceItemResponse{
			ProductID:       item.ProductID.String(),
			ProductName:     item.ProductName,
			HSNCode:         item.HSNCode,
			BatchNumber:     item.BatchNumber,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			GSTRate:         item.GSTRate,
			TaxableValue:    item.TaxableValue,
			TaxAmount:       item.TaxAmount,
			LineTotal:       item.LineTotal,
		})
	}
	return out
}

func (s *Server) CreateInvoice(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lines := make([]billingdomain.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := parseID(line.ProductID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		lines = append(lines, billingdomain.CartLine{
			ProductID:       productID,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
		})
	}

	invoice, err := s.billingSvc.CreateInvoice(c.Request.Context(), branch.ID, user.ID, billingdomain.CreateInvoiceRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerGSTIN:   req.CustomerGSTIN,
		PaymentMethod:   billingdomain.PaymentMethod(req.PaymentMethod),
		PlaceOfSupply:   req.PlaceOfSupply,
		DiscountPercent: req.DiscountPercent,
		Lines:           lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "invoice.created",
		ResourceType: "invoice",
		ResourceID:   invoice.ID.String(),
		Metadata: map[string]any{
			"invoice_number": invoice.InvoiceNumber,
			"grand_total":    invoice.GrandTotal.String(),
			"branch_id":      branch.ID.String(),
		},
	})

	c.JSON(http.StatusCreated, toInvoiceResponse(invoice))
}

func (s *Server) ListInvoices(c *gin.Context) {
	branch := s.currentBranch(c)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	limit := page.Limit()

	var before *time.Time
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		parsed, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		before = &parsed
	}

	// Overfetch one row so the page info can tell whether more exist.
	invoices, err := s.billingSvc.ListInvoices(c.Request.Context(), branch.ID, limit+1, before)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	info, invoices := pagination.BuildCursorPageInfo(invoices, limit, func(inv *billingdomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": out, "page_info": info})
}

func (s *Server) GetInvoice(c *gin.Context) {
	branch := s.currentBranch(c)
	invoiceID, err := parseID(c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.billingSvc.GetInvoice(c.Request.Context(), branch.ID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

func (s *Server) InvoiceReceipt(c *gin.Context) {
	branch := s.currentBranch(c)
	invoiceID, err := parseID(c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pdf, err := s.billingSvc.ReceiptPDF(c.Request.Context(), branch.ID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "receipt-"+invoiceID.String()+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) GSTSummary(c *gin.Context) {
	branch := s.currentBranch(c)

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		to = parsed
	}

	summary, err := s.billingSvc.GSTSummary(c.Request.Context(), branch.ID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
)

type CreateProductRequest struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	HSNCode      string          `json:"hsn_code"`
	Manufacturer string          `json:"manufacturer"`
	Category     string          `json:"category"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	ReorderLevel int             `json:"reorder_level"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	HSNCode      *string          `json:"hsn_code"`
	Manufacturer *string          `json:"manufacturer"`
	Category     *string          `json:"category"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	GSTRate      *decimal.Decimal `json:"gst_rate"`
	ReorderLevel *int             `json:"reorder_level"`
}

type AddBatchRequest struct {
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type productResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	HSNCode      string          `json:"hsn_code,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Category     string          `json:"category,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	ReorderLevel int             `json:"reorder_level"`
}

func toProductResponse(p *inventorydomain.Product) productResponse {
	return productResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		SKU:          p.SKU,
		HSNCode:      p.HSNCode,
		Manufacturer: p.Manufacturer,
		Category:     p.Category,
		UnitPrice:    p.UnitPrice,
		GSTRate:      p.GSTRate,
		ReorderLevel: p.ReorderLevel,
	}
}

type batchResponse struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

func toBatchResponse(b *inventorydomain.StockBatch) batchResponse {
	return batchResponse{
		ID:          b.ID.String(),
		ProductID:   b.ProductID.String(),
		BatchNumber: b.BatchNumber,
		Quantity:    b.Quantity,
		ExpiryDate:  b.ExpiryDate,
	}
}

func (s *Server) CreateProduct(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.inventorySvc.CreateProduct(c.Request.Context(), branch.ID, inventorydomain.CreateProductRequest{
		Name:         req.Name,
		SKU:          req.SKU,
		HSNCode:      req.HSNCode,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		GSTRate:      req.GSTRate,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "product.created",
		ResourceType: "product",
		ResourceID:   product.ID.String(),
		Metadata:     map[string]any{"sku": product.SKU, "branch_id": branch.ID.String()},
	})

	c.JSON(http.StatusCreated, toProductResponse(product))
}

func (s *Server) ListProducts(c *gin.Context) {
	branch := s.currentBranch(c)

	products, err := s.inventorySvc.ListProducts(c.Request.Context(), branch.ID, c.Query("search"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (s *Server) GetProduct(c *gin.Context) {
	branch := s.currentBranch(c)
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.inventorySvc.GetProduct(c.Request.Context(), branch.ID, productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (s *Server) UpdateProduct(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.inventorySvc.UpdateProduct(c.Request.Context(), branch.ID, productID, inventorydomain.UpdateProductRequest{
		Name:         req.Name,
		HSNCode:      req.HSNCode,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		GSTRate:      req.GSTRate,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "product.updated",
		ResourceType: "product",
		ResourceID:   product.ID.String(),
	})

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (s *Server) DeleteProduct(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.inventorySvc.DeleteProduct(c.Request.Context(), branch.ID, productID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "product.deleted",
		ResourceType: "product",
		ResourceID:   productID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) AddBatch(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req AddBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	batch, err := s.inventorySvc.AddBatch(c.Request.Context(), branch.ID, productID, inventorydomain.AddBatchRequest{
		BatchNumber: req.BatchNumber,
		Quantity:    req.Quantity,
		ExpiryDate:  req.ExpiryDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "stock.batch_added",
		ResourceType: "stock_batch",
		ResourceID:   batch.ID.String(),
		Metadata:     map[string]any{"product_id": productID.String(), "quantity": req.Quantity},
	})

	c.JSON(http.StatusCreated, toBatchResponse(batch))
}

func (s *Server) ListBatches(c *gin.Context) {
	branch := s.currentBranch(c)
	productID, err := parseID(c.Param("productId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	batches, err := s.inventorySvc.ListBatches(c.Request.Context(), branch.ID, productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"batches": out})
}

func (s *Server) AdjustStock(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	batchID, err := parseID(c.Param("batchId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.inventorySvc.AdjustStock(c.Request.Context(), branch.ID, batchID, req.Delta); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "stock.adjusted",
		ResourceType: "stock_batch",
		ResourceID:   batchID.String(),
		Metadata:     map[string]any{"delta": req.Delta},
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) LowStock(c *gin.Context) {
	branch := s.currentBranch(c)

	levels, err := s.inventorySvc.LowStock(c.Request.Context(), branch.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, gin.H{
			"product":  toProductResponse(&lvl.Product),
			"quantity": lvl.Quantity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"low_stock": out})
}

func (s *Server) ExpiringStock(c *gin.Context) {
	branch := s.currentBranch(c)

	days := 30
	if raw := c.Query("within"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		days = parsed
	}

	batches, err := s.inventorySvc.ExpiringSoon(c.Request.Context(), branch.ID, time.Duration(days)*24*time.Hour)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"expiring": out})
}

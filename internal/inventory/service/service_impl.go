package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/inventory/domain"
	"github.com/intellpharma/pharmastock/pkg/db"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, branchID snowflake.ID, req domain.CreateProductRequest) (*domain.Product, error) {
	now := s.clock.Now().UTC()
	reorderLevel := req.ReorderLevel
	if reorderLevel <= 0 {
		reorderLevel = 10
	}
	product := &domain.Product{
		ID:           s.genID.Generate(),
		BranchID:     branchID,
		Name:         strings.TrimSpace(req.Name),
		SKU:          strings.ToUpper(strings.TrimSpace(req.SKU)),
		HSNCode:      strings.TrimSpace(req.HSNCode),
		Manufacturer: strings.TrimSpace(req.Manufacturer),
		Category:     strings.TrimSpace(req.Category),
		UnitPrice:    req.UnitPrice,
		GSTRate:      req.GSTRate,
		ReorderLevel: reorderLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProduct(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSKU
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, branchID, productID snowflake.ID) (*domain.Product, error) {
	product, err := s.repo.FindProduct(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product.BranchID != branchID {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, branchID snowflake.ID, search string) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx, s.db, branchID, search)
}

func (s *Service) UpdateProduct(ctx context.Context, branchID, productID snowflake.ID, req domain.UpdateProductRequest) (*domain.Product, error) {
	if _, err := s.GetProduct(ctx, branchID, productID); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now().UTC()}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.HSNCode != nil {
		fields["hsn_code"] = strings.TrimSpace(*req.HSNCode)
	}
	if req.Manufacturer != nil {
		fields["manufacturer"] = strings.TrimSpace(*req.Manufacturer)
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.UnitPrice != nil {
		fields["unit_price"] = *req.UnitPrice
	}
	if req.GSTRate != nil {
		fields["gst_rate"] = *req.GSTRate
	}
	if req.ReorderLevel != nil {
		fields["reorder_level"] = *req.ReorderLevel
	}

	if err := s.repo.UpdateProductFields(ctx, s.db, productID, fields); err != nil {
		return nil, err
	}
	return s.repo.FindProduct(ctx, s.db, productID)
}

func (s *Service) DeleteProduct(ctx context.Context, branchID, productID snowflake.ID) error {
	if _, err := s.GetProduct(ctx, branchID, productID); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, s.db, productID)
}

func (s *Service) AddBatch(ctx context.Context, branchID, productID snowflake.ID, req domain.AddBatchRequest) (*domain.StockBatch, error) {
	if req.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := s.GetProduct(ctx, branchID, productID); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	batch := &domain.StockBatch{
		ID:          s.genID.Generate(),
		ProductID:   productID,
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		Quantity:    req.Quantity,
		ExpiryDate:  req.ExpiryDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateBatch(ctx, s.db, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, branchID, productID snowflake.ID) ([]*domain.StockBatch, error) {
	if _, err := s.GetProduct(ctx, branchID, productID); err != nil {
		return nil, err
	}
	return s.repo.ListBatchesFEFO(ctx, s.db, productID)
}

func (s *Service) AdjustStock(ctx context.Context, branchID, batchID snowflake.ID, delta int) error {
	if delta == 0 {
		return domain.ErrInvalidQuantity
	}
	return s.repo.AdjustBatchQuantity(ctx, s.db, batchID, delta)
}

func (s *Service) TotalStock(ctx context.Context, productID snowflake.ID) (int, error) {
	return s.repo.TotalStock(ctx, s.db, productID)
}

func (s *Service) LowStock(ctx context.Context, branchID snowflake.ID) ([]*domain.StockLevel, error) {
	return s.repo.LowStock(ctx, s.db, branchID)
}

func (s *Service) ExpiringSoon(ctx context.Context, branchID snowflake.ID, within time.Duration) ([]*domain.StockBatch, error) {
	return s.repo.ExpiringSoon(ctx, s.db, branchID, s.clock.Now().UTC().Add(within))
}

func (s *Service) DeductFEFO(ctx context.Context, tx *gorm.DB, productID snowflake.ID, quantity int) ([]domain.Deduction, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	batches, err := s.repo.ListBatchesFEFO(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	remaining := quantity
	var deductions []domain.Deduction
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		if err := s.repo.AdjustBatchQuantity(ctx, tx, batch.ID, -take); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				// Another sale drained the batch between list and
				// update. The surrounding transaction retries or fails.
				continue
			}
			return nil, err
		}
		deductions = append(deductions, domain.Deduction{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Quantity:    take,
		})
		remaining -= take
	}

	if remaining > 0 {
		return nil, domain.ErrInsufficientStock
	}
	return deductions, nil
}

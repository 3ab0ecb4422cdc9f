package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/inventory/domain"
	"github.com/intellpharma/pharmastock/internal/inventory/repository"
	"github.com/intellpharma/pharmastock/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock, *Service) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Product{}, &domain.StockBatch{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.New(),
	})
	return svc, clk, svc.(*Service)
}

func seedProduct(t *testing.T, svc domain.Service, branchID snowflake.ID) *domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), branchID, domain.CreateProductRequest{
		Name:      "Paracetamol 500mg",
		SKU:       "para-500",
		HSNCode:   "3004",
		UnitPrice: decimal.NewFromInt(20),
		GSTRate:   decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	return product
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, _, _ := newTestService(t)
	branchID := snowflake.ID(1)

	seedProduct(t, svc, branchID)

	_, err := svc.CreateProduct(context.Background(), branchID, domain.CreateProductRequest{
		Name: "Other", SKU: "PARA-500",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)

	// A different branch may reuse the SKU.
	_, err = svc.CreateProduct(context.Background(), snowflake.ID(2), domain.CreateProductRequest{
		Name: "Other", SKU: "PARA-500",
	})
	require.NoError(t, err)
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	svc, clk, _ := newTestService(t)
	branchID := snowflake.ID(1)
	product := seedProduct(t, svc, branchID)

	expiry := clk.Now().Add(90 * 24 * time.Hour)
	batch, err := svc.AddBatch(context.Background(), branchID, product.ID, domain.AddBatchRequest{
		BatchNumber: "B-1",
		Quantity:    10,
		ExpiryDate:  &expiry,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AdjustStock(context.Background(), branchID, batch.ID, -4))
	err = svc.AdjustStock(context.Background(), branchID, batch.ID, -7)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	total, err := svc.TotalStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestDeductFEFOTakesEarliestExpiryFirst(t *testing.T) {
	svc, clk, impl := newTestService(t)
	branchID := snowflake.ID(1)
	product := seedProduct(t, svc, branchID)

	late := clk.Now().Add(180 * 24 * time.Hour)
	early := clk.Now().Add(30 * 24 * time.Hour)

	_, err := svc.AddBatch(context.Background(), branchID, product.ID, domain.AddBatchRequest{
		BatchNumber: "LATE", Quantity: 10, ExpiryDate: &late,
	})
	require.NoError(t, err)
	_, err = svc.AddBatch(context.Background(), branchID, product.ID, domain.AddBatchRequest{
		BatchNumber: "EARLY", Quantity: 5, ExpiryDate: &early,
	})
	require.NoError(t, err)

	deductions, err := svc.DeductFEFO(context.Background(), impl.db, product.ID, 8)
	require.NoError(t, err)
	require.Len(t, deductions, 2)
	assert.Equal(t, "EARLY", deductions[0].BatchNumber)
	assert.Equal(t, 5, deductions[0].Quantity)
	assert.Equal(t, "LATE", deductions[1].BatchNumber)
	assert.Equal(t, 3, deductions[1].Quantity)

	total, err := svc.TotalStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestDeductFEFOInsufficientStockRollsNothingForward(t *testing.T) {
	svc, clk, impl := newTestService(t)
	branchID := snowflake.ID(1)
	product := seedProduct(t, svc, branchID)

	expiry := clk.Now().Add(30 * 24 * time.Hour)
	_, err := svc.AddBatch(context.Background(), branchID, product.ID, domain.AddBatchRequest{
		BatchNumber: "B-1", Quantity: 3, ExpiryDate: &expiry,
	})
	require.NoError(t, err)

	err = impl.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DeductFEFO(context.Background(), tx, product.ID, 5)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	total, err := svc.TotalStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestLowStockAndExpiringSoon(t *testing.T) {
	svc, clk, _ := newTestService(t)
	branchID := snowflake.ID(1)
	product := seedProduct(t, svc, branchID)

	soon := clk.Now().Add(10 * 24 * time.Hour)
	_, err := svc.AddBatch(context.Background(), branchID, product.ID, domain.AddBatchRequest{
		BatchNumber: "B-1", Quantity: 4, ExpiryDate: &soon,
	})
	require.NoError(t, err)

	low, err := svc.LowStock(context.Background(), branchID)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, product.ID, low[0].Product.ID)
	assert.Equal(t, 4, low[0].Quantity)

	expiring, err := svc.ExpiringSoon(context.Background(), branchID, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "B-1", expiring[0].BatchNumber)
}

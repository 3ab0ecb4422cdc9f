package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/entitlement/repository"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Entitlement{}, &domain.Grant{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    repository.New(dbConn),
		Catalog: plan.Default(),
	})
	return svc, clk
}

func TestEnsureFreeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := snowflake.ID(42)

	first, err := svc.EnsureFree(context.Background(), ownerID)
	require.NoError(t, err)
	second, err := svc.EnsureFree(context.Background(), ownerID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusFree, second.Status)
	assert.Equal(t, plan.TierBasic, second.Tier)
}

func TestBranchLimitFreeVersusActive(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(42)

	limit, err := svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, limit)

	_, err = svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	limit, err = svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 3, limit)
}

func TestPendingSyncKeepsFreeQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := snowflake.ID(42)

	require.NoError(t, svc.MarkPendingSync(context.Background(), ownerID, "cus_1"))

	record, err := svc.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingSync, record.Status)

	limit, err := svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, limit)
}

func TestExtraBranchGrantIdempotent(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(42)

	_, err := svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.ApplyExtraBranchGrant(context.Background(), ownerID, "cs_session_1", 2)
	require.NoError(t, err)
	// Replayed webhook delivers the same checkout session again.
	record, err := svc.ApplyExtraBranchGrant(context.Background(), ownerID, "cs_session_1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, record.ExtraBranches)

	limit, err := svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
}

func TestReconcileCancellationZeroesGrants(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(42)

	_, err := svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.ApplyExtraBranchGrant(context.Background(), ownerID, "cs_session_1", 3)
	require.NoError(t, err)

	record, err := svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourcePoll,
		ProviderSubscriptionID: "sub_1",
		Active:                 false,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFree, record.Status)
	assert.Zero(t, record.ExtraBranches)

	// A later renewal must not resurrect the dead grants.
	record, err = svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourceVerify,
		ProviderSubscriptionID: "sub_2",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Zero(t, record.ExtraBranches)

	limit, err := svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 3, limit)
}

func TestLapseExpired(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(42)

	_, err := svc.Reconcile(context.Background(), ownerID, domain.Snapshot{
		Source:                 domain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	clk.Advance(31 * 24 * time.Hour)

	lapsed, err := svc.LapseExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, lapsed)

	limit, err := svc.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, limit)
}

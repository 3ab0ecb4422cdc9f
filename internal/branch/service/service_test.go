package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/branch/repository"
	"github.com/intellpharma/pharmastock/internal/clock"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	entitlementrepo "github.com/intellpharma/pharmastock/internal/entitlement/repository"
	entitlementservice "github.com/intellpharma/pharmastock/internal/entitlement/service"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, entitlementdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&domain.Branch{},
		&domain.StaffMember{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.Grant{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	entitlementsvc := entitlementservice.NewService(entitlementservice.ServiceParam{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    entitlementrepo.New(dbConn),
		Catalog: plan.Default(),
	})

	svc := NewService(ServiceParam{
		DB:             dbConn,
		Log:            zap.NewNop(),
		GenID:          node,
		Clock:          clk,
		Repo:           repository.New(dbConn),
		Entitlementsvc: entitlementsvc,
	})
	return svc, entitlementsvc, clk
}

func TestCreateBranchEnforcesFreePlanLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := snowflake.ID(7)

	_, err := svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Main Branch"})
	require.NoError(t, err)

	_, err = svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Second Branch"})
	assert.ErrorIs(t, err, domain.ErrBranchLimitReached)
}

func TestCreateBranchQuotaGrowsWithPlan(t *testing.T) {
	svc, entitlementsvc, clk := newTestService(t)
	ownerID := snowflake.ID(7)

	_, err := svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Main Branch"})
	require.NoError(t, err)

	_, err = entitlementsvc.Reconcile(context.Background(), ownerID, entitlementdomain.Snapshot{
		Source:                 entitlementdomain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	for _, name := range []string{"Second Branch", "Third Branch"} {
		_, err = svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: name})
		require.NoError(t, err)
	}

	_, err = svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Fourth Branch"})
	assert.ErrorIs(t, err, domain.ErrBranchLimitReached)
}

func TestDeactivatedBranchFreesQuota(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := snowflake.ID(7)

	branch, err := svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Main Branch"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateBranch(context.Background(), ownerID, branch.ID))

	_, err = svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Replacement"})
	require.NoError(t, err)

	branches, err := svc.ListBranches(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, branches, 2)
}

func TestAuthorizeStaffAssignment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := snowflake.ID(7)

	branch, err := svc.CreateBranch(context.Background(), ownerID, domain.CreateBranchRequest{Name: "Main Branch"})
	require.NoError(t, err)

	staffID := snowflake.ID(99)
	staff := &authdomain.User{ID: staffID, Role: authdomain.RoleBillingStaff, OwnerID: &ownerID}

	_, err = svc.Authorize(context.Background(), staff, branch.ID)
	assert.ErrorIs(t, err, domain.ErrNotBranchMember)

	_, err = svc.AssignStaff(context.Background(), ownerID, branch.ID, staffID, authdomain.RoleBillingStaff)
	require.NoError(t, err)

	got, err := svc.Authorize(context.Background(), staff, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, branch.ID, got.ID)

	owner := &authdomain.User{ID: ownerID, Role: authdomain.RoleOwner}
	_, err = svc.Authorize(context.Background(), owner, branch.ID)
	require.NoError(t, err)

	stranger := &authdomain.User{ID: snowflake.ID(1000), Role: authdomain.RoleOwner}
	_, err = svc.Authorize(context.Background(), stranger, branch.ID)
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

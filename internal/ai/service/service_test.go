package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/ai/domain"
	"github.com/intellpharma/pharmastock/internal/ai/repository"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	entitlementrepo "github.com/intellpharma/pharmastock/internal/entitlement/repository"
	entitlementservice "github.com/intellpharma/pharmastock/internal/entitlement/service"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/internal/ratelimit"
	"github.com/intellpharma/pharmastock/pkg/db"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, userID snowflake.ID) (*ratelimit.Result, error) {
	return &ratelimit.Result{Allowed: false, RetryAfter: time.Second}, nil
}

type fixture struct {
	svc          domain.Service
	generator    *fakeGenerator
	entitlements entitlementdomain.Service
	clk          *clock.FakeClock
}

func newFixture(t *testing.T, limiter ratelimit.PromptLimiter) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&domain.PromptRecord{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.Grant{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	entitlements := entitlementservice.NewService(entitlementservice.ServiceParam{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    entitlementrepo.New(dbConn),
		Catalog: plan.Default(),
	})

	if limiter == nil {
		limiter = ratelimit.NewPromptLimiter(nil, config.RateLimitConfig{})
	}
	generator := &fakeGenerator{}
	svc := NewService(ServiceParam{
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.New(dbConn),
		Generator:    generator,
		Entitlements: entitlements,
		Limiter:      limiter,
	})
	return &fixture{svc: svc, generator: generator, entitlements: entitlements, clk: clk}
}

func activatePro(t *testing.T, f *fixture, ownerID snowflake.ID) {
	t.Helper()
	_, err := f.entitlements.Reconcile(context.Background(), ownerID, entitlementdomain.Snapshot{
		Source:                 entitlementdomain.SourceVerify,
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       f.clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
}

func TestPromptRequiresAIFeature(t *testing.T) {
	f := newFixture(t, nil)
	ownerID := snowflake.ID(42)

	_, err := f.entitlements.EnsureFree(context.Background(), ownerID)
	require.NoError(t, err)

	_, err = f.svc.Prompt(context.Background(), domain.PromptRequest{
		UserID:  snowflake.ID(7),
		OwnerID: ownerID,
		Role:    authdomain.RoleOwner,
		Prompt:  "Show monthly P&L summary",
	})
	assert.ErrorIs(t, err, entitlementdomain.ErrFeatureNotAvailable)
}

func TestPromptStoresHistory(t *testing.T) {
	f := newFixture(t, nil)
	ownerID := snowflake.ID(42)
	userID := snowflake.ID(7)
	activatePro(t, f, ownerID)

	f.generator.response = "Revenue this month is up 12%."
	result, err := f.svc.Prompt(context.Background(), domain.PromptRequest{
		UserID:  userID,
		OwnerID: ownerID,
		Role:    authdomain.RoleOwner,
		Prompt:  "Revenue trend for last 6 months",
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue this month is up 12%.", result.ResponseText)

	// The generated prompt carries the role context.
	require.Len(t, f.generator.prompts, 1)
	assert.Contains(t, f.generator.prompts[0], "User Role: OWNER")
	assert.Contains(t, f.generator.prompts[0], "Revenue trend for last 6 months")

	history, err := f.svc.History(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.KindChat, history[0].Kind)
	assert.Equal(t, "Revenue trend for last 6 months", history[0].Prompt)
}

func TestPromptRateLimited(t *testing.T) {
	f := newFixture(t, denyLimiter{})
	ownerID := snowflake.ID(42)
	activatePro(t, f, ownerID)

	_, err := f.svc.Prompt(context.Background(), domain.PromptRequest{
		UserID:  snowflake.ID(7),
		OwnerID: ownerID,
		Role:    authdomain.RoleOwner,
		Prompt:  "anything",
	})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestParseBillStripsCodeFence(t *testing.T) {
	f := newFixture(t, nil)
	ownerID := snowflake.ID(42)
	activatePro(t, f, ownerID)

	f.generator.response = "```json\n[{\"name\":\"Paracetamol 500mg\",\"quantity\":2,\"price\":30.5,\"unit\":\"strip\"},{\"name\":\"\",\"quantity\":1,\"price\":null,\"unit\":null}]\n```"
	lines, err := f.svc.ParseBill(context.Background(), snowflake.ID(7), ownerID, "2 strips paracetamol 500 at 30.50")
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, "Paracetamol 500mg", lines[0].Name)
	assert.Equal(t, 2, lines[0].Quantity)
	require.NotNil(t, lines[0].Price)
	assert.Equal(t, "30.5", lines[0].Price.String())
	assert.Equal(t, "strip", lines[0].Unit)
}

func TestParseBillRejectsNonJSON(t *testing.T) {
	f := newFixture(t, nil)
	ownerID := snowflake.ID(42)
	activatePro(t, f, ownerID)

	f.generator.response = "Sorry, I could not find any products."
	_, err := f.svc.ParseBill(context.Background(), snowflake.ID(7), ownerID, "hello")
	assert.ErrorIs(t, err, domain.ErrUnparsableResponse)
}

func TestSuggestedPromptsByRole(t *testing.T) {
	f := newFixture(t, nil)

	owner := f.svc.SuggestedPrompts(authdomain.RoleOwner)
	staff := f.svc.SuggestedPrompts(authdomain.RoleBillingStaff)
	unknown := f.svc.SuggestedPrompts(authdomain.Role("GHOST"))

	assert.Len(t, owner, 5)
	assert.Len(t, staff, 3)
	assert.Equal(t, staff, unknown)
	assert.Equal(t, "Show monthly P&L summary", owner[0].Prompt)
}

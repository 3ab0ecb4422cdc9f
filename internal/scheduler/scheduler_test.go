package scheduler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	authrepo "github.com/intellpharma/pharmastock/internal/auth/repository"
	"github.com/intellpharma/pharmastock/internal/clock"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	entitlementrepo "github.com/intellpharma/pharmastock/internal/entitlement/repository"
	entitlementservice "github.com/intellpharma/pharmastock/internal/entitlement/service"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	paymentrepo "github.com/intellpharma/pharmastock/internal/payment/repository"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/pkg/db"
)

// fakePaymentService records which tenants were polled.
type fakePaymentService struct {
	refreshed []snowflake.ID
	err       error
}

func (f *fakePaymentService) StartCheckout(ctx context.Context, req paymentdomain.StartCheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	return nil, nil
}

func (f *fakePaymentService) VerifySession(ctx context.Context, ownerID snowflake.ID, sessionID string) error {
	return nil
}

func (f *fakePaymentService) RefreshSubscription(ctx context.Context, ownerID snowflake.ID) error {
	f.refreshed = append(f.refreshed, ownerID)
	return f.err
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	return nil
}

func (f *fakePaymentService) PortalURL(ctx context.Context, ownerID snowflake.ID, returnURL string) (string, error) {
	return "", nil
}

type fixture struct {
	sched        *Scheduler
	payments     *fakePaymentService
	entitlements entitlementdomain.Service
	sessionRepo  authdomain.SessionRepository
	clk          *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&entitlementdomain.Entitlement{},
		&entitlementdomain.Grant{},
		&paymentdomain.WebhookEvent{},
		&authdomain.User{},
		&authdomain.Session{},
		&inventorydomain.Product{},
		&inventorydomain.StockBatch{},
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
	_, sessionRepo := authrepo.New(dbConn)

	payments := &fakePaymentService{}
	sched, err := New(Params{
		DB:             dbConn,
		Log:            zap.NewNop(),
		Clock:          clk,
		EntitlementSvc: entitlements,
		PaymentSvc:     payments,
		PaymentRepo:    paymentrepo.New(dbConn, node, clk),
		SessionRepo:    sessionRepo,
	})
	require.NoError(t, err)
	return &fixture{
		sched:        sched,
		payments:     payments,
		entitlements: entitlements,
		sessionRepo:  sessionRepo,
		clk:          clk,
	}
}

func activate(t *testing.T, f *fixture, ownerID snowflake.ID, periodEnd time.Time) {
	t.Helper()
	_, err := f.entitlements.Reconcile(context.Background(), ownerID, entitlementdomain.Snapshot{
		Source:                 entitlementdomain.SourceVerify,
		ProviderSubscriptionID: "sub_" + ownerID.String(),
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       periodEnd,
	})
	require.NoError(t, err)
}

func TestPollSubscriptionsOnlyPollsDueRecords(t *testing.T) {
	f := newFixture(t)
	dueOwner := snowflake.ID(1)
	freshOwner := snowflake.ID(2)

	activate(t, f, dueOwner, f.clk.Now().Add(12*time.Hour))
	activate(t, f, freshOwner, f.clk.Now().Add(20*24*time.Hour))

	require.NoError(t, f.sched.PollSubscriptionsJob(context.Background()))

	assert.Equal(t, []snowflake.ID{dueOwner}, f.payments.refreshed)
}

func TestPollSubscriptionsToleratesProviderOutage(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(1)
	activate(t, f, ownerID, f.clk.Now().Add(time.Hour))

	f.payments.err = paymentdomain.ErrProviderUnavailable
	require.NoError(t, f.sched.PollSubscriptionsJob(context.Background()))

	// The record stays active, nothing downgrades on an outage.
	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, entitlementdomain.StatusActive, record.Status)
}

func TestLapseEntitlementsJob(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(1)
	activate(t, f, ownerID, f.clk.Now().Add(24*time.Hour))

	f.clk.Advance(48 * time.Hour)
	require.NoError(t, f.sched.LapseEntitlementsJob(context.Background()))

	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, entitlementdomain.StatusLapsed, record.Status)
}

func TestPurgeSessionsJob(t *testing.T) {
	f := newFixture(t)

	expired := &authdomain.Session{
		ID:               snowflake.ID(100),
		UserID:           snowflake.ID(1),
		SessionTokenHash: "hash-expired",
		ExpiresAt:        f.clk.Now().Add(-time.Hour),
		CreatedAt:        f.clk.Now().Add(-8 * 24 * time.Hour),
	}
	live := &authdomain.Session{
		ID:               snowflake.ID(101),
		UserID:           snowflake.ID(1),
		SessionTokenHash: "hash-live",
		ExpiresAt:        f.clk.Now().Add(time.Hour),
		CreatedAt:        f.clk.Now(),
	}
	require.NoError(t, f.sessionRepo.CreateSession(context.Background(), expired))
	require.NoError(t, f.sessionRepo.CreateSession(context.Background(), live))

	require.NoError(t, f.sched.PurgeSessionsJob(context.Background()))

	_, err := f.sessionRepo.GetSessionByTokenHash(context.Background(), "hash-expired")
	assert.Error(t, err)
	_, err = f.sessionRepo.GetSessionByTokenHash(context.Background(), "hash-live")
	assert.NoError(t, err)
}

func TestRunOnceAggregatesJobs(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(1)
	activate(t, f, ownerID, f.clk.Now().Add(time.Hour))

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, []snowflake.ID{ownerID}, f.payments.refreshed)
}

package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	entitlementrepo "github.com/intellpharma/pharmastock/internal/entitlement/repository"
	entitlementservice "github.com/intellpharma/pharmastock/internal/entitlement/service"
	"github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/payment/repository"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/pkg/db"
)

// fakeWebhook skips signature checks and replays a canned event.
type fakeWebhook struct {
	event *domain.Event
	err   error
}

func (f *fakeWebhook) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return nil
}

func (f *fakeWebhook) Parse(ctx context.Context, payload []byte) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

// fakeClient serves provider state from memory.
type fakeClient struct {
	sessions      map[string]*domain.CheckoutSession
	subscriptions map[string]*domain.Subscription
	created       []domain.CreateCheckoutRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		sessions:      map[string]*domain.CheckoutSession{},
		subscriptions: map[string]*domain.Subscription{},
	}
}

func (f *fakeClient) CreateCheckoutSession(ctx context.Context, req domain.CreateCheckoutRequest) (*domain.CheckoutSession, error) {
	f.created = append(f.created, req)
	session := &domain.CheckoutSession{
		ID:         "cs_test",
		URL:        "https://checkout.example/cs_test",
		CustomerID: "cus_test",
		OwnerID:    req.OwnerID,
		Purpose:    req.Purpose,
		Tier:       req.Tier,
		Quantity:   req.Quantity,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.ErrInvalidEvent
	}
	return session, nil
}

func (f *fakeClient) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, domain.ErrNoSubscription
	}
	return sub, nil
}

func (f *fakeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://portal.example/" + customerID, nil
}

type fixture struct {
	svc          domain.Service
	client       *fakeClient
	webhook      *fakeWebhook
	entitlements entitlementdomain.Service
	clk          *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&entitlementdomain.Entitlement{},
		&entitlementdomain.Grant{},
		&domain.WebhookEvent{},
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

	client := newFakeClient()
	webhook := &fakeWebhook{}
	svc := NewService(ServiceParam{
		Log:          zap.NewNop(),
		Config:       config.Config{ClientURL: "http://localhost:5173"},
		Repo:         repository.New(dbConn, node, clk),
		Webhook:      webhook,
		Client:       client,
		Entitlements: entitlements,
		Catalog:      plan.Default(),
		Clock:        clk,
	})
	return &fixture{svc: svc, client: client, webhook: webhook, entitlements: entitlements, clk: clk}
}

func TestStartCheckoutMarksPendingSync(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	session, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		OwnerID: ownerID,
		Email:   "owner@pharmacy.test",
		Purpose: domain.PurposePlan,
		Tier:    plan.TierPro,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, entitlementdomain.StatusPendingSync, record.Status)
	assert.Equal(t, "cus_test", record.ProviderCustomerID)

	// Quotas must stay on the free plan until the provider confirms.
	limit, err := f.entitlements.BranchLimit(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, limit)
}

func TestStartCheckoutRejectsNonPurchasableTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		OwnerID: snowflake.ID(42),
		Purpose: domain.PurposePlan,
		Tier:    plan.TierBasic,
	})
	assert.Error(t, err)
}

func TestVerifySessionActivatesPlan(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	session, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		OwnerID: ownerID,
		Purpose: domain.PurposePlan,
		Tier:    plan.TierPro,
	})
	require.NoError(t, err)

	periodEnd := f.clk.Now().Add(30 * 24 * time.Hour)
	f.client.sessions[session.ID].Paid = true
	f.client.sessions[session.ID].SubscriptionID = "sub_1"
	f.client.subscriptions["sub_1"] = &domain.Subscription{
		ID:               "sub_1",
		CustomerID:       "cus_test",
		Active:           true,
		CurrentPeriodEnd: periodEnd,
		Tier:             plan.TierPro,
	}

	require.NoError(t, f.svc.VerifySession(context.Background(), ownerID, session.ID))

	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, entitlementdomain.StatusActive, record.Status)
	assert.Equal(t, plan.TierPro, record.Tier)
	assert.Equal(t, "sub_1", record.ProviderSubscriptionID)
}

func TestVerifySessionRejectsUnpaidAndForeignSessions(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	session, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		OwnerID: ownerID,
		Purpose: domain.PurposePlan,
		Tier:    plan.TierPro,
	})
	require.NoError(t, err)

	err = f.svc.VerifySession(context.Background(), ownerID, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotPaid)

	f.client.sessions[session.ID].Paid = true
	err = f.svc.VerifySession(context.Background(), snowflake.ID(99), session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestWebhookDeduplicatesByEventID(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	_, err := f.entitlements.EnsureFree(context.Background(), ownerID)
	require.NoError(t, err)

	f.webhook.event = &domain.Event{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		Type:            domain.EventCheckoutCompleted,
		OwnerID:         ownerID,
		Purpose:         domain.PurposeExtraBranch,
		SessionID:       "cs_extra",
		Quantity:        2,
		OccurredAt:      f.clk.Now(),
	}

	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte(`{}`), http.Header{}))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte(`{}`), http.Header{}))

	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.ExtraBranches)
}

func TestWebhookSubscriptionDeletedCollapsesToFree(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	_, err := f.entitlements.Reconcile(context.Background(), ownerID, entitlementdomain.Snapshot{
		Source:                 entitlementdomain.SourceVerify,
		ProviderCustomerID:     "cus_test",
		ProviderSubscriptionID: "sub_1",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       f.clk.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	f.webhook.event = &domain.Event{
		Provider:        "stripe",
		ProviderEventID: "evt_del",
		Type:            domain.EventSubscriptionDeleted,
		OwnerID:         ownerID,
		CustomerID:      "cus_test",
		SubscriptionID:  "sub_1",
		OccurredAt:      f.clk.Now(),
	}
	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte(`{}`), http.Header{}))

	record, err := f.entitlements.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, entitlementdomain.StatusFree, record.Status)
	assert.Equal(t, plan.TierBasic, record.Tier)
	assert.Empty(t, record.ProviderSubscriptionID)
}

func TestPortalURLRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	ownerID := snowflake.ID(42)

	_, err := f.entitlements.EnsureFree(context.Background(), ownerID)
	require.NoError(t, err)

	_, err = f.svc.PortalURL(context.Background(), ownerID, "")
	assert.ErrorIs(t, err, domain.ErrNoSubscription)

	require.NoError(t, f.entitlements.MarkPendingSync(context.Background(), ownerID, "cus_test"))
	url, err := f.svc.PortalURL(context.Background(), ownerID, "")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/cus_test", url)
}

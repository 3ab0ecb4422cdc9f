package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

type fakePaymentService struct {
	webhookCalls   int
	webhookPayload []byte
	webhookErr     error
}

func (f *fakePaymentService) StartCheckout(ctx context.Context, req paymentdomain.StartCheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	_ = ctx
	return &paymentdomain.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1", OwnerID: req.OwnerID}, nil
}

func (f *fakePaymentService) VerifySession(ctx context.Context, ownerID snowflake.ID, sessionID string) error {
	_ = ctx
	_ = ownerID
	_ = sessionID
	return nil
}

func (f *fakePaymentService) RefreshSubscription(ctx context.Context, ownerID snowflake.ID) error {
	_ = ctx
	_ = ownerID
	return nil
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	f.webhookCalls++
	f.webhookPayload = payload
	_ = ctx
	_ = headers
	return f.webhookErr
}

func (f *fakePaymentService) PortalURL(ctx context.Context, ownerID snowflake.ID, returnURL string) (string, error) {
	_ = ctx
	_ = ownerID
	_ = returnURL
	return "https://portal.example", nil
}

type fakeEntitlementService struct {
	ent *entitlementdomain.Entitlement
}

func (f *fakeEntitlementService) EnsureFree(ctx context.Context, ownerID snowflake.ID) (*entitlementdomain.Entitlement, error) {
	_ = ctx
	_ = ownerID
	return f.ent, nil
}

func (f *fakeEntitlementService) Get(ctx context.Context, ownerID snowflake.ID) (*entitlementdomain.Entitlement, error) {
	_ = ctx
	_ = ownerID
	return f.ent, nil
}

func (f *fakeEntitlementService) MarkPendingSync(ctx context.Context, ownerID snowflake.ID, providerCustomerID string) error {
	panic("unexpected call")
}

func (f *fakeEntitlementService) Reconcile(ctx context.Context, ownerID snowflake.ID, snap entitlementdomain.Snapshot) (*entitlementdomain.Entitlement, error) {
	panic("unexpected call")
}

func (f *fakeEntitlementService) ApplyExtraBranchGrant(ctx context.Context, ownerID snowflake.ID, idempotencyKey string, quantity int) (*entitlementdomain.Entitlement, error) {
	panic("unexpected call")
}

func (f *fakeEntitlementService) BranchLimit(ctx context.Context, ownerID snowflake.ID) (int, error) {
	_ = ctx
	_ = ownerID
	return 3, nil
}

func (f *fakeEntitlementService) IsFeatureEnabled(ctx context.Context, ownerID snowflake.ID, feature plan.Feature) (bool, error) {
	_ = ctx
	_ = ownerID
	_ = feature
	return true, nil
}

func (f *fakeEntitlementService) LapseExpired(ctx context.Context) (int64, error) {
	_ = ctx
	return 0, nil
}

func (f *fakeEntitlementService) ListForPoll(ctx context.Context, before time.Time) ([]*entitlementdomain.Entitlement, error) {
	_ = ctx
	_ = before
	return nil, nil
}

func withTestUser(user *authdomain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func TestListPlansIncludesCatalogAndExtraBranchPrice(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{catalog: plan.Default()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/subscription/plans", srv.ListPlans)

	req := httptest.NewRequest(http.MethodGet, "/subscription/plans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body struct {
		Plans            []plan.Plan `json:"plans"`
		ExtraBranchPrice string      `json:"extra_branch_price"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Plans) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(body.Plans))
	}
	if body.Plans[0].Tier != plan.TierBasic {
		t.Fatalf("expected BASIC first, got %s", body.Plans[0].Tier)
	}
	if body.ExtraBranchPrice != "499" {
		t.Fatalf("expected extra branch price 499, got %q", body.ExtraBranchPrice)
	}
}

func TestGetSubscriptionReportsBranchLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{
		entitlementSvc: &fakeEntitlementService{
			ent: &entitlementdomain.Entitlement{
				OwnerID:       snowflake.ID(42),
				Tier:          plan.TierPro,
				Status:        entitlementdomain.StatusActive,
				ExtraBranches: 1,
			},
		},
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/subscription", withTestUser(&authdomain.User{ID: snowflake.ID(42), Role: authdomain.RoleOwner}), srv.GetSubscription)

	req := httptest.NewRequest(http.MethodGet, "/subscription", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body struct {
		Tier          string `json:"tier"`
		Status        string `json:"status"`
		BranchLimit   int    `json:"branch_limit"`
		ExtraBranches int    `json:"extra_branches"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Tier != "PRO" || body.Status != "ACTIVE" {
		t.Fatalf("unexpected subscription %+v", body)
	}
	if body.BranchLimit != 3 || body.ExtraBranches != 1 {
		t.Fatalf("unexpected limits %+v", body)
	}
}

func TestWebhookRejectsUnknownProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	paymentSvc := &fakePaymentService{}
	srv := &Server{
		cfg:        config.Config{Payment: config.PaymentConfig{Provider: "stripe"}},
		paymentSvc: paymentSvc,
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/payments/webhooks/:provider", srv.HandlePaymentWebhook)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks/paypal", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if paymentSvc.webhookCalls != 0 {
		t.Fatal("expected webhook service not to be called for unknown provider")
	}
}

func TestWebhookForwardsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	paymentSvc := &fakePaymentService{}
	srv := &Server{
		cfg:        config.Config{Payment: config.PaymentConfig{Provider: "stripe"}},
		paymentSvc: paymentSvc,
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/payments/webhooks/:provider", srv.HandlePaymentWebhook)

	payload := `{"id":"evt_1","type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks/stripe", bytes.NewBufferString(payload))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if paymentSvc.webhookCalls != 1 {
		t.Fatalf("expected 1 webhook call, got %d", paymentSvc.webhookCalls)
	}
	if string(paymentSvc.webhookPayload) != payload {
		t.Fatalf("payload not forwarded intact: %s", paymentSvc.webhookPayload)
	}
}

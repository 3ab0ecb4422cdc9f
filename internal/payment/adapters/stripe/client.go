package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

// Client talks to the Stripe REST API with form-encoded requests.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	catalog    *plan.Catalog
}

func NewClient(secretKey, baseURL string, catalog *plan.Catalog) (*Client, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	if catalog == nil {
		catalog = plan.Default()
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		catalog:    catalog,
	}, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req paymentdomain.CreateCheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("metadata[owner_id]", req.OwnerID.String())
	form.Set("metadata[purpose]", string(req.Purpose))
	form.Set("subscription_data[metadata][owner_id]", req.OwnerID.String())

	if req.CustomerID != "" {
		form.Set("customer", req.CustomerID)
	} else if req.Email != "" {
		form.Set("customer_email", req.Email)
	}

	switch req.Purpose {
	case paymentdomain.PurposeExtraBranch:
		quantity := req.Quantity
		if quantity < 1 {
			quantity = 1
		}
		form.Set("metadata[quantity]", strconv.Itoa(quantity))
		form.Set("line_items[0][quantity]", strconv.Itoa(quantity))
		form.Set("line_items[0][price_data][currency]", "inr")
		form.Set("line_items[0][price_data][product_data][name]", "Additional branch slot")
		form.Set("line_items[0][price_data][recurring][interval]", "month")
		form.Set("line_items[0][price_data][unit_amount]", paiseAmount(c.catalog.ExtraBranchPrice().InexactFloat64()))
	default:
		selected, ok := c.catalog.Get(req.Tier)
		if !ok || !c.catalog.Purchasable(req.Tier) {
			return nil, paymentdomain.ErrInvalidEvent
		}
		form.Set("metadata[tier]", string(req.Tier))
		form.Set("subscription_data[metadata][tier]", string(req.Tier))
		form.Set("line_items[0][quantity]", "1")
		form.Set("line_items[0][price_data][currency]", "inr")
		form.Set("line_items[0][price_data][product_data][name]", selected.Name+" plan")
		form.Set("line_items[0][price_data][recurring][interval]", "month")
		form.Set("line_items[0][price_data][unit_amount]", paiseAmount(selected.MonthlyPrice.InexactFloat64()))
	}

	var session stripeCheckoutSessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return session.toDomain(), nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*paymentdomain.CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	var session stripeCheckoutSessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return session.toDomain(), nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*paymentdomain.Subscription, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return nil, paymentdomain.ErrNoSubscription
	}
	var sub stripeSubscription
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, &sub); err != nil {
		return nil, err
	}

	result := &paymentdomain.Subscription{
		ID:                sub.ID,
		CustomerID:        sub.Customer,
		Active:            sub.Status == "active" || sub.Status == "trialing",
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		result.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if tier, ok := plan.ParseTier(sub.Metadata["tier"]); ok {
		result.Tier = tier
	}
	return result, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", paymentdomain.ErrNoSubscription
	}
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var portal struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form, &portal); err != nil {
		return "", err
	}
	return portal.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", paymentdomain.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("stripe %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

type stripeCheckoutSessionResponse struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func (s stripeCheckoutSessionResponse) toDomain() *paymentdomain.CheckoutSession {
	session := &paymentdomain.CheckoutSession{
		ID:             s.ID,
		URL:            s.URL,
		CustomerID:     s.Customer,
		SubscriptionID: s.Subscription,
		Paid:           s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required",
		Purpose:        purposeFromMetadata(s.Metadata),
		Quantity:       quantityFromMetadata(s.Metadata),
	}
	if ownerID, err := ownerFromMetadata(s.Metadata); err == nil {
		session.OwnerID = ownerID
	}
	if tier, ok := plan.ParseTier(s.Metadata["tier"]); ok {
		session.Tier = tier
	}
	return session
}

// paiseAmount converts a rupee amount to the integer paise string Stripe
// expects in unit_amount.
func paiseAmount(rupees float64) string {
	return strconv.FormatInt(int64(rupees*100+0.5), 10)
}

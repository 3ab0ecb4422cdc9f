// Package stripe adapts Stripe checkout, subscriptions and webhooks to
// the payment domain types.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

const ProviderName = "stripe"

type Webhook struct {
	webhookSecret string
}

func NewWebhook(webhookSecret string) (*Webhook, error) {
	webhookSecret = strings.TrimSpace(webhookSecret)
	if webhookSecret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Webhook{webhookSecret: webhookSecret}, nil
}

func (w *Webhook) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	_ = ctx

	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return paymentdomain.ErrInvalidSignature
}

func (w *Webhook) Parse(ctx context.Context, payload []byte) (*paymentdomain.Event, error) {
	_ = ctx

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return parseCheckoutSession(event)
	case "customer.subscription.updated":
		return parseSubscriptionEvent(event, paymentdomain.EventSubscriptionUpdated)
	case "customer.subscription.deleted":
		return parseSubscriptionEvent(event, paymentdomain.EventSubscriptionDeleted)
	case "invoice.payment_failed":
		return parseInvoiceFailed(event)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeInvoice struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

func parseCheckoutSession(event stripeEvent) (*paymentdomain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	ownerID, err := ownerFromMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}

	result := &paymentdomain.Event{
		Provider:        ProviderName,
		ProviderEventID: event.ID,
		Type:            paymentdomain.EventCheckoutCompleted,
		OwnerID:         ownerID,
		Purpose:         purposeFromMetadata(session.Metadata),
		SessionID:       session.ID,
		CustomerID:      session.Customer,
		SubscriptionID:  session.Subscription,
		Quantity:        quantityFromMetadata(session.Metadata),
		OccurredAt:      time.Unix(event.Created, 0).UTC(),
	}
	if tier, ok := plan.ParseTier(session.Metadata["tier"]); ok {
		result.Tier = tier
	}
	return result, nil
}

func parseSubscriptionEvent(event stripeEvent, eventType paymentdomain.EventType) (*paymentdomain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	ownerID, err := ownerFromMetadata(sub.Metadata)
	if err != nil {
		return nil, err
	}

	result := &paymentdomain.Event{
		Provider:          ProviderName,
		ProviderEventID:   event.ID,
		Type:              eventType,
		OwnerID:           ownerID,
		CustomerID:        sub.Customer,
		SubscriptionID:    sub.ID,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		OccurredAt:        time.Unix(event.Created, 0).UTC(),
	}
	if sub.CurrentPeriodEnd > 0 {
		result.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if tier, ok := plan.ParseTier(sub.Metadata["tier"]); ok {
		result.Tier = tier
	}
	return result, nil
}

func parseInvoiceFailed(event stripeEvent) (*paymentdomain.Event, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	ownerID, err := ownerFromMetadata(invoice.Metadata)
	if err != nil {
		// Invoice metadata is often empty; the customer link is enough
		// for a payment-failed signal.
		ownerID = 0
	}

	return &paymentdomain.Event{
		Provider:        ProviderName,
		ProviderEventID: event.ID,
		Type:            paymentdomain.EventPaymentFailed,
		OwnerID:         ownerID,
		CustomerID:      invoice.Customer,
		SubscriptionID:  invoice.Subscription,
		OccurredAt:      time.Unix(event.Created, 0).UTC(),
	}, nil
}

func ownerFromMetadata(metadata map[string]string) (snowflake.ID, error) {
	raw := strings.TrimSpace(metadata["owner_id"])
	if raw == "" {
		return 0, paymentdomain.ErrInvalidEvent
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, paymentdomain.ErrInvalidEvent
	}
	return id, nil
}

func purposeFromMetadata(metadata map[string]string) paymentdomain.CheckoutPurpose {
	if metadata["purpose"] == string(paymentdomain.PurposeExtraBranch) {
		return paymentdomain.PurposeExtraBranch
	}
	return paymentdomain.PurposePlan
}

func quantityFromMetadata(metadata map[string]string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(metadata["quantity"]))
	if err != nil || qty < 1 {
		return 1
	}
	return qty
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

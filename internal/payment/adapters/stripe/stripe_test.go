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
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildStripeSignatureHeader(secret, payload, timestamp)
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", header)

	webhook := &Webhook{webhookSecret: secret}
	if err := webhook.Verify(context.Background(), payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", buildStripeSignatureHeader("wrong", payload, timestamp))
	if err := webhook.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}

	reqHeader.Set("Stripe-Signature", "garbage")
	if err := webhook.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
}

func TestParseCheckoutCompleted(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	ownerID := node.Generate()
	created := time.Now().UTC().Unix()

	payload := mustMarshal(t, map[string]any{
		"id":      "evt_checkout",
		"type":    "checkout.session.completed",
		"created": created,
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_1",
				"customer":       "cus_1",
				"subscription":   "sub_1",
				"payment_status": "paid",
				"metadata": map[string]any{
					"owner_id": ownerID.String(),
					"purpose":  "plan",
					"tier":     "PRO",
				},
			},
		},
	})

	webhook := &Webhook{webhookSecret: "whsec_test"}
	event, err := webhook.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.Type != paymentdomain.EventCheckoutCompleted {
		t.Fatalf("expected checkout.completed, got %s", event.Type)
	}
	if event.OwnerID != ownerID {
		t.Fatalf("expected owner %s, got %s", ownerID, event.OwnerID)
	}
	if event.Purpose != paymentdomain.PurposePlan {
		t.Fatalf("expected plan purpose, got %s", event.Purpose)
	}
	if event.Tier != plan.TierPro {
		t.Fatalf("expected PRO tier, got %s", event.Tier)
	}
	if event.SessionID != "cs_1" || event.SubscriptionID != "sub_1" || event.CustomerID != "cus_1" {
		t.Fatalf("unexpected identifiers: %+v", event)
	}
}

func TestParseExtraBranchQuantity(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	ownerID := node.Generate()

	payload := mustMarshal(t, map[string]any{
		"id":      "evt_extra",
		"type":    "checkout.session.completed",
		"created": time.Now().UTC().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id": "cs_extra",
				"metadata": map[string]any{
					"owner_id": ownerID.String(),
					"purpose":  "extra_branch",
					"quantity": "3",
				},
			},
		},
	})

	webhook := &Webhook{webhookSecret: "whsec_test"}
	event, err := webhook.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.Purpose != paymentdomain.PurposeExtraBranch {
		t.Fatalf("expected extra_branch purpose, got %s", event.Purpose)
	}
	if event.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", event.Quantity)
	}
}

func TestParseSubscriptionEvents(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	ownerID := node.Generate()
	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour).Unix()

	tests := []struct {
		name       string
		stripeType string
		wantType   paymentdomain.EventType
	}{
		{"updated", "customer.subscription.updated", paymentdomain.EventSubscriptionUpdated},
		{"deleted", "customer.subscription.deleted", paymentdomain.EventSubscriptionDeleted},
	}

	webhook := &Webhook{webhookSecret: "whsec_test"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := mustMarshal(t, map[string]any{
				"id":      "evt_" + tt.name,
				"type":    tt.stripeType,
				"created": time.Now().UTC().Unix(),
				"data": map[string]any{
					"object": map[string]any{
						"id":                   "sub_1",
						"customer":             "cus_1",
						"status":               "active",
						"cancel_at_period_end": true,
						"current_period_end":   periodEnd,
						"metadata": map[string]any{
							"owner_id": ownerID.String(),
							"tier":     "PREMIUM",
						},
					},
				},
			})

			event, err := webhook.Parse(context.Background(), payload)
			if err != nil {
				t.Fatalf("parse event: %v", err)
			}
			if event.Type != tt.wantType {
				t.Fatalf("expected type %s, got %s", tt.wantType, event.Type)
			}
			if !event.CancelAtPeriodEnd {
				t.Fatalf("expected cancel_at_period_end to carry over")
			}
			if event.CurrentPeriodEnd.Unix() != periodEnd {
				t.Fatalf("expected period end %d, got %d", periodEnd, event.CurrentPeriodEnd.Unix())
			}
			if event.Tier != plan.TierPremium {
				t.Fatalf("expected PREMIUM tier, got %s", event.Tier)
			}
		})
	}
}

func TestParseIgnoresUnknownEvents(t *testing.T) {
	payload := mustMarshal(t, map[string]any{
		"id":      "evt_other",
		"type":    "customer.created",
		"created": time.Now().UTC().Unix(),
		"data":    map[string]any{"object": map[string]any{}},
	})

	webhook := &Webhook{webhookSecret: "whsec_test"}
	if _, err := webhook.Parse(context.Background(), payload); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("expected event ignored, got %v", err)
	}
}

func mustMarshal(t *testing.T, value any) []byte {
	t.Helper()
	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}

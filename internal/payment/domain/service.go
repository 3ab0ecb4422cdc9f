package domain

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"

	"github.com/intellpharma/pharmastock/internal/plan"
)

// StartCheckoutRequest starts a hosted checkout for a tenant owner.
type StartCheckoutRequest struct {
	OwnerID    snowflake.ID
	Email      string
	Purpose    CheckoutPurpose
	Tier       plan.Tier
	Quantity   int
	SuccessURL string
	CancelURL  string
}

type Service interface {
	// StartCheckout creates a provider checkout session and marks the
	// tenant's entitlement pending sync.
	StartCheckout(ctx context.Context, req StartCheckoutRequest) (*CheckoutSession, error)
	// VerifySession confirms a completed checkout directly with the
	// provider and applies its outcome.
	VerifySession(ctx context.Context, ownerID snowflake.ID, sessionID string) error
	// RefreshSubscription polls the provider for the tenant's current
	// subscription state and reconciles it.
	RefreshSubscription(ctx context.Context, ownerID snowflake.ID) error
	// HandleWebhook verifies, parses, deduplicates and applies one
	// pushed provider event.
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error
	// PortalURL returns a provider-hosted billing portal link.
	PortalURL(ctx context.Context, ownerID snowflake.ID, returnURL string) (string, error)
}

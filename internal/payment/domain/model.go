// Package domain contains provider-facing payment types.
package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/intellpharma/pharmastock/internal/plan"
)

// CheckoutPurpose says what a checkout session buys.
type CheckoutPurpose string

const (
	PurposePlan        CheckoutPurpose = "plan"
	PurposeExtraBranch CheckoutPurpose = "extra_branch"
)

// EventType is the normalized webhook event type.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventPaymentFailed       EventType = "payment.failed"
)

// Event is a provider webhook event normalized for reconciliation.
type Event struct {
	Provider          string
	ProviderEventID   string
	Type              EventType
	OwnerID           snowflake.ID
	Purpose           CheckoutPurpose
	SessionID         string
	CustomerID        string
	SubscriptionID    string
	Tier              plan.Tier
	Quantity          int
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
	OccurredAt        time.Time
}

// CheckoutSession is the provider's checkout session representation.
type CheckoutSession struct {
	ID             string
	URL            string
	CustomerID     string
	SubscriptionID string
	Paid           bool
	OwnerID        snowflake.ID
	Purpose        CheckoutPurpose
	Tier           plan.Tier
	Quantity       int
}

// Subscription is the provider's subscription representation.
type Subscription struct {
	ID                string
	CustomerID        string
	Active            bool
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
	Tier              plan.Tier
}

// CreateCheckoutRequest starts a hosted checkout.
type CreateCheckoutRequest struct {
	OwnerID    snowflake.ID
	CustomerID string
	Email      string
	Purpose    CheckoutPurpose
	Tier       plan.Tier
	Quantity   int
	SuccessURL string
	CancelURL  string
}

// WebhookAdapter verifies and parses pushed provider events.
type WebhookAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*Event, error)
}

// Client calls the provider's HTTP API.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// WebhookEvent is the stored copy of a received event, used both as an
// idempotency ledger and for debugging.
type WebhookEvent struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Provider   string       `gorm:"column:provider;type:text;not null;uniqueIndex:idx_payment_events_event"`
	EventID    string       `gorm:"column:event_id;type:text;not null;uniqueIndex:idx_payment_events_event"`
	EventType  string       `gorm:"column:event_type;type:text;not null"`
	Payload    string       `gorm:"column:payload;type:text;not null;default:''"`
	ReceivedAt time.Time    `gorm:"column:received_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "payment_events" }

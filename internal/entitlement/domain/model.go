// Package domain contains the entitlement record and provider snapshot types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/intellpharma/pharmastock/internal/plan"
)

// Status is the subscription lifecycle state of a tenant entitlement.
type Status string

const (
	StatusFree        Status = "FREE"
	StatusPendingSync Status = "PENDING_SYNC"
	StatusActive      Status = "ACTIVE"
	StatusCanceling   Status = "CANCELING"
	StatusLapsed      Status = "LAPSED"
)

// Paid reports whether the status grants the paid plan's quotas.
func (s Status) Paid() bool {
	return s == StatusActive || s == StatusCanceling
}

// Entitlement is the single per-tenant record everything quota and
// feature related reads from. OwnerID is the tenant key.
type Entitlement struct {
	ID                     snowflake.ID `gorm:"primaryKey"`
	OwnerID                snowflake.ID `gorm:"column:owner_id;not null;uniqueIndex"`
	Tier                   plan.Tier    `gorm:"column:tier;type:text;not null;default:'BASIC'"`
	Status                 Status       `gorm:"column:status;type:text;not null;default:'FREE'"`
	ProviderCustomerID     string       `gorm:"column:provider_customer_id;type:text;not null;default:''"`
	ProviderSubscriptionID string       `gorm:"column:provider_subscription_id;type:text;not null;default:''"`
	ExtraBranches          int          `gorm:"column:extra_branches;not null;default:0"`
	AutoRenew              bool         `gorm:"column:auto_renew;not null;default:false"`
	CurrentPeriodEnd       *time.Time   `gorm:"column:current_period_end"`
	CanceledAt             *time.Time   `gorm:"column:canceled_at"`
	SyncedAt               *time.Time   `gorm:"column:synced_at"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entitlement) TableName() string { return "entitlements" }

// Grant records one purchased extra-branch pack, keyed by the provider
// checkout session so replayed webhooks cannot double-apply it.
type Grant struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	OwnerID        snowflake.ID `gorm:"column:owner_id;not null;index"`
	IdempotencyKey string       `gorm:"column:idempotency_key;type:text;not null;uniqueIndex"`
	Quantity       int          `gorm:"column:quantity;not null;default:1"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Grant) TableName() string { return "entitlement_grants" }

// SnapshotSource identifies how a provider snapshot was obtained.
type SnapshotSource string

const (
	// SourceWebhook snapshots come from pushed events and only apply to
	// the subscription the local record already tracks.
	SourceWebhook SnapshotSource = "webhook"
	// SourceVerify snapshots come from a client-initiated checkout
	// verification and are authoritative for the tenant.
	SourceVerify SnapshotSource = "verify"
	// SourcePoll snapshots come from the scheduler's provider poll and
	// are authoritative for the tenant.
	SourcePoll SnapshotSource = "poll"
)

// Authoritative reports whether the snapshot may replace a different
// provider subscription on the local record.
func (s SnapshotSource) Authoritative() bool {
	return s == SourceVerify || s == SourcePoll
}

// Snapshot is the provider-reported subscription state fed to Merge.
type Snapshot struct {
	Source                 SnapshotSource
	ProviderCustomerID     string
	ProviderSubscriptionID string
	Tier                   plan.Tier
	// Active is false when the provider reports the subscription
	// canceled, deleted or unknown.
	Active            bool
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/intellpharma/pharmastock/internal/plan"
)

type Service interface {
	// EnsureFree creates the tenant's free entitlement if none exists.
	EnsureFree(ctx context.Context, ownerID snowflake.ID) (*Entitlement, error)
	Get(ctx context.Context, ownerID snowflake.ID) (*Entitlement, error)
	// MarkPendingSync records that a checkout started so quota checks
	// stay on the free plan until the provider confirms.
	MarkPendingSync(ctx context.Context, ownerID snowflake.ID, providerCustomerID string) error
	// Reconcile merges a provider snapshot into the local record and
	// persists the result atomically.
	Reconcile(ctx context.Context, ownerID snowflake.ID, snap Snapshot) (*Entitlement, error)
	// ApplyExtraBranchGrant applies one purchased extra-branch pack,
	// keyed by the provider checkout session for idempotency.
	ApplyExtraBranchGrant(ctx context.Context, ownerID snowflake.ID, idempotencyKey string, quantity int) (*Entitlement, error)
	BranchLimit(ctx context.Context, ownerID snowflake.ID) (int, error)
	IsFeatureEnabled(ctx context.Context, ownerID snowflake.ID, feature plan.Feature) (bool, error)
	// LapseExpired marks paid records whose period end passed without a
	// renewal. Returns the number of lapsed records.
	LapseExpired(ctx context.Context) (int64, error)
	// ListForPoll returns records whose provider state is due a poll.
	ListForPoll(ctx context.Context, before time.Time) ([]*Entitlement, error)
}

// Package reconcile holds the pure merge of a local entitlement record
// with a provider-reported subscription snapshot.
package reconcile

import (
	"time"

	"github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

// Merge combines the local record with a provider snapshot and returns
// the new record. The provider is the source of truth: whatever it
// reports replaces the local subscription state. Merge never touches
// storage or the network, and feeding it the same snapshot twice yields
// the same result.
//
// Webhook snapshots are scoped to the subscription the local record
// already tracks. A pushed event for some other subscription (stale
// retry, replaced subscription) is ignored; verify and poll snapshots
// are customer-level queries and always apply.
func Merge(local domain.Entitlement, snap domain.Snapshot, catalog *plan.Catalog, now time.Time) domain.Entitlement {
	result := local

	if snap.Source == domain.SourceWebhook &&
		local.ProviderSubscriptionID != "" &&
		snap.ProviderSubscriptionID != local.ProviderSubscriptionID {
		return result
	}

	now = now.UTC()
	syncedAt := now

	if snap.ProviderCustomerID != "" {
		result.ProviderCustomerID = snap.ProviderCustomerID
	}

	if !snap.Active {
		// Provider-reported cancellation collapses everything the
		// subscription carried, extra branch grants included.
		free := catalog.Free()
		result.Tier = free.Tier
		result.Status = domain.StatusFree
		result.ProviderSubscriptionID = ""
		result.ExtraBranches = 0
		result.AutoRenew = false
		result.CurrentPeriodEnd = nil
		if result.CanceledAt == nil {
			canceledAt := now
			result.CanceledAt = &canceledAt
		}
		result.SyncedAt = &syncedAt
		result.UpdatedAt = now
		return result
	}

	if snap.Tier.Valid() && catalog.Purchasable(snap.Tier) {
		result.Tier = snap.Tier
	}
	result.Status = domain.StatusActive
	if snap.CancelAtPeriodEnd {
		result.Status = domain.StatusCanceling
	}
	if !snap.CurrentPeriodEnd.IsZero() && now.After(snap.CurrentPeriodEnd) {
		result.Status = domain.StatusLapsed
	}

	result.ProviderSubscriptionID = snap.ProviderSubscriptionID
	result.AutoRenew = !snap.CancelAtPeriodEnd
	if snap.CurrentPeriodEnd.IsZero() {
		result.CurrentPeriodEnd = nil
	} else {
		periodEnd := snap.CurrentPeriodEnd.UTC()
		result.CurrentPeriodEnd = &periodEnd
	}
	result.CanceledAt = nil
	result.SyncedAt = &syncedAt
	result.UpdatedAt = now
	return result
}

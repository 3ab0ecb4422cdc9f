package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeSnapshot(source domain.SnapshotSource) domain.Snapshot {
	return domain.Snapshot{
		Source:                 source,
		ProviderCustomerID:     "cus_123",
		ProviderSubscriptionID: "sub_123",
		Tier:                   plan.TierPro,
		Active:                 true,
		CurrentPeriodEnd:       testNow.Add(30 * 24 * time.Hour),
	}
}

func TestMergeActivatesPendingRecord(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierBasic,
		Status: domain.StatusPendingSync,
	}

	merged := Merge(local, activeSnapshot(domain.SourceVerify), plan.Default(), testNow)

	assert.Equal(t, plan.TierPro, merged.Tier)
	assert.Equal(t, domain.StatusActive, merged.Status)
	assert.Equal(t, "sub_123", merged.ProviderSubscriptionID)
	assert.Equal(t, "cus_123", merged.ProviderCustomerID)
	assert.True(t, merged.AutoRenew)
	if assert.NotNil(t, merged.CurrentPeriodEnd) {
		assert.Equal(t, testNow.Add(30*24*time.Hour), *merged.CurrentPeriodEnd)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierBasic,
		Status: domain.StatusPendingSync,
	}
	catalog := plan.Default()
	snap := activeSnapshot(domain.SourceVerify)

	once := Merge(local, snap, catalog, testNow)
	twice := Merge(once, snap, catalog, testNow)

	assert.Equal(t, once, twice)
}

func TestMergeConvergesRegardlessOfTriggerOrder(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierBasic,
		Status: domain.StatusPendingSync,
	}
	catalog := plan.Default()

	viaVerifyThenWebhook := Merge(Merge(local, activeSnapshot(domain.SourceVerify), catalog, testNow), activeSnapshot(domain.SourceWebhook), catalog, testNow)
	viaWebhookThenVerify := Merge(Merge(local, activeSnapshot(domain.SourceWebhook), catalog, testNow), activeSnapshot(domain.SourceVerify), catalog, testNow)

	assert.Equal(t, viaVerifyThenWebhook, viaWebhookThenVerify)
}

func TestMergeWebhookForOtherSubscriptionIgnored(t *testing.T) {
	periodEnd := testNow.Add(20 * 24 * time.Hour)
	local := domain.Entitlement{
		Tier:                   plan.TierPremium,
		Status:                 domain.StatusActive,
		ProviderSubscriptionID: "sub_current",
		ExtraBranches:          2,
		AutoRenew:              true,
		CurrentPeriodEnd:       &periodEnd,
	}

	snap := domain.Snapshot{
		Source:                 domain.SourceWebhook,
		ProviderSubscriptionID: "sub_stale",
		Active:                 false,
	}

	merged := Merge(local, snap, plan.Default(), testNow)
	assert.Equal(t, local, merged)
}

func TestMergePollReplacesDifferentSubscription(t *testing.T) {
	local := domain.Entitlement{
		Tier:                   plan.TierPro,
		Status:                 domain.StatusActive,
		ProviderSubscriptionID: "sub_old",
	}

	snap := activeSnapshot(domain.SourcePoll)
	snap.ProviderSubscriptionID = "sub_new"
	snap.Tier = plan.TierPremium

	merged := Merge(local, snap, plan.Default(), testNow)
	assert.Equal(t, "sub_new", merged.ProviderSubscriptionID)
	assert.Equal(t, plan.TierPremium, merged.Tier)
}

func TestMergeCancellationCollapsesToFree(t *testing.T) {
	periodEnd := testNow.Add(10 * 24 * time.Hour)
	local := domain.Entitlement{
		Tier:                   plan.TierPro,
		Status:                 domain.StatusActive,
		ProviderCustomerID:     "cus_123",
		ProviderSubscriptionID: "sub_123",
		ExtraBranches:          3,
		AutoRenew:              true,
		CurrentPeriodEnd:       &periodEnd,
	}

	snap := domain.Snapshot{
		Source:                 domain.SourceWebhook,
		ProviderSubscriptionID: "sub_123",
		Active:                 false,
	}

	merged := Merge(local, snap, plan.Default(), testNow)

	assert.Equal(t, plan.TierBasic, merged.Tier)
	assert.Equal(t, domain.StatusFree, merged.Status)
	assert.Empty(t, merged.ProviderSubscriptionID)
	assert.Equal(t, "cus_123", merged.ProviderCustomerID)
	assert.Zero(t, merged.ExtraBranches)
	assert.False(t, merged.AutoRenew)
	assert.Nil(t, merged.CurrentPeriodEnd)
	if assert.NotNil(t, merged.CanceledAt) {
		assert.Equal(t, testNow, *merged.CanceledAt)
	}
}

func TestMergeCancelAtPeriodEndMarksCanceling(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierPro,
		Status: domain.StatusActive,
	}

	snap := activeSnapshot(domain.SourceVerify)
	snap.CancelAtPeriodEnd = true

	merged := Merge(local, snap, plan.Default(), testNow)
	assert.Equal(t, domain.StatusCanceling, merged.Status)
	assert.False(t, merged.AutoRenew)
	assert.Equal(t, plan.TierPro, merged.Tier)
}

func TestMergePastPeriodEndMarksLapsed(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierPro,
		Status: domain.StatusActive,
	}

	snap := activeSnapshot(domain.SourceVerify)
	snap.CurrentPeriodEnd = testNow.Add(-time.Hour)

	merged := Merge(local, snap, plan.Default(), testNow)
	assert.Equal(t, domain.StatusLapsed, merged.Status)
}

func TestMergeUnknownTierKeepsLocalTier(t *testing.T) {
	local := domain.Entitlement{
		Tier:   plan.TierPro,
		Status: domain.StatusActive,
	}

	snap := activeSnapshot(domain.SourceVerify)
	snap.Tier = plan.Tier("GOLD")

	merged := Merge(local, snap, plan.Default(), testNow)
	assert.Equal(t, plan.TierPro, merged.Tier)
}

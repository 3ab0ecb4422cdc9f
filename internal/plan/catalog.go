// Package plan holds the immutable subscription plan catalog.
//
// The catalog is built once at startup and passed explicitly to the
// components that need it. Feature flags and branch quotas are always
// derived from a tier through the catalog, never set independently.
package plan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a subscription plan level. Tiers are ordered: free lowest.
type Tier string

const (
	TierBasic      Tier = "BASIC"
	TierPro        Tier = "PRO"
	TierPremium    Tier = "PREMIUM"
	TierEnterprise Tier = "ENTERPRISE"
)

// Feature is a gateable product capability derived from the plan.
type Feature string

const (
	FeatureAI        Feature = "ai"
	FeatureAnalytics Feature = "analytics"
)

// Plan describes the quota and capabilities granted by a tier.
type Plan struct {
	Tier             Tier            `json:"id"`
	Name             string          `json:"name"`
	MonthlyPrice     decimal.Decimal `json:"price"`
	CustomPricing    bool            `json:"custom_pricing"`
	MaxBranches      int             `json:"max_branches"`
	AIEnabled        bool            `json:"ai_enabled"`
	AnalyticsEnabled bool            `json:"analytics_enabled"`
	Features         []string        `json:"features"`
}

// HasFeature reports whether the plan grants a gateable feature.
func (p Plan) HasFeature(feature Feature) bool {
	switch feature {
	case FeatureAI:
		return p.AIEnabled
	case FeatureAnalytics:
		return p.AnalyticsEnabled
	default:
		return false
	}
}

// Catalog is an immutable tier -> plan lookup.
type Catalog struct {
	plans            map[Tier]Plan
	order            []Tier
	extraBranchPrice decimal.Decimal
}

// Default returns the catalog shipped with the product.
func Default() *Catalog {
	order := []Tier{TierBasic, TierPro, TierPremium, TierEnterprise}
	plans := map[Tier]Plan{
		TierBasic: {
			Tier:         TierBasic,
			Name:         "Basic",
			MonthlyPrice: decimal.Zero,
			MaxBranches:  1,
			Features:     []string{"Single branch", "Basic billing", "Inventory management"},
		},
		TierPro: {
			Tier:             TierPro,
			Name:             "Pro",
			MonthlyPrice:     decimal.NewFromInt(999),
			MaxBranches:      3,
			AIEnabled:        true,
			AnalyticsEnabled: true,
			Features:         []string{"Up to 3 branches", "AI insights", "Advanced analytics", "GST reports"},
		},
		TierPremium: {
			Tier:             TierPremium,
			Name:             "Premium",
			MonthlyPrice:     decimal.NewFromInt(1999),
			MaxBranches:      10,
			AIEnabled:        true,
			AnalyticsEnabled: true,
			Features:         []string{"Up to 10 branches", "Full AI suite", "Custom reports", "Priority support", "API access"},
		},
		TierEnterprise: {
			Tier:             TierEnterprise,
			Name:             "Enterprise",
			CustomPricing:    true,
			MaxBranches:      999,
			AIEnabled:        true,
			AnalyticsEnabled: true,
			Features:         []string{"Unlimited branches", "Dedicated support", "Custom integrations", "SLA guarantee"},
		},
	}
	return &Catalog{
		plans:            plans,
		order:            order,
		extraBranchPrice: decimal.NewFromInt(499),
	}
}

// Get returns the plan for a tier. The returned value is a copy.
func (c *Catalog) Get(tier Tier) (Plan, bool) {
	p, ok := c.plans[tier]
	if !ok {
		return Plan{}, false
	}
	features := make([]string, len(p.Features))
	copy(features, p.Features)
	p.Features = features
	return p, true
}

// Free returns the lowest tier plan.
func (c *Catalog) Free() Plan {
	p, _ := c.Get(TierBasic)
	return p
}

// Tiers returns the tier order, lowest first.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.order))
	copy(out, c.order)
	return out
}

// ExtraBranchPrice is the monthly price of one additional branch slot.
func (c *Catalog) ExtraBranchPrice() decimal.Decimal {
	return c.extraBranchPrice
}

// Purchasable reports whether a tier can be bought through self-serve
// checkout. Basic is free and Enterprise goes through sales.
func (c *Catalog) Purchasable(tier Tier) bool {
	return tier == TierPro || tier == TierPremium
}

// Valid reports whether the tier is one of the known values.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// ParseTier normalizes a raw tier string.
func ParseTier(raw string) (Tier, bool) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(raw)))
	switch tier {
	case TierBasic, TierPro, TierPremium, TierEnterprise:
		return tier, true
	default:
		return "", false
	}
}

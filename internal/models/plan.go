package models

// PlanTier ranks a subscription plan. Tiers form a strict total order
// basic < premium < vip used by coupon access control.
type PlanTier string

const (
	TierBasic   PlanTier = "basic"
	TierPremium PlanTier = "premium"
	TierVIP     PlanTier = "vip"
)

var tierRank = map[PlanTier]int{
	TierBasic:   0,
	TierPremium: 1,
	TierVIP:     2,
}

// Rank returns the ordinal position of the tier, -1 for unknown values.
func (t PlanTier) Rank() int {
	r, ok := tierRank[t]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether t grants access to content requiring other.
func (t PlanTier) AtLeast(other PlanTier) bool {
	return t.Rank() >= other.Rank()
}

// SubscriptionPlan is a catalog entity. Plans are referenced, never owned,
// by subscriptions and only administrative edits mutate them.
type SubscriptionPlan struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Tier         PlanTier `json:"tier"`
	PriceXOF     int      `json:"price_xof"`
	DurationDays int      `json:"duration_days"`
	Features     []string `json:"features"`
	IsActive     bool     `json:"is_active"`
}

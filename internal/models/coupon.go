package models

import "time"

// RiskLevel labels how aggressive a coupon is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Bookmaker is the betting operator a coupon is published for.
type Bookmaker struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	LogoURL string  `json:"logo_url"`
	Rating  float64 `json:"rating"`
}

// DailyCoupon is a curated set of match predictions published for one
// day and gated by a required plan tier. IsValidated is nil while the
// coupon is unsettled, then true/false once settled.
type DailyCoupon struct {
	ID           int               `json:"id"`
	BookmakerID  int               `json:"bookmaker_id"`
	CouponDate   time.Time         `json:"coupon_date"`
	RequiredTier PlanTier          `json:"required_tier"`
	RiskLevel    RiskLevel         `json:"risk_level"`
	TotalOdds    float64           `json:"total_odds"`
	IsValidated  *bool             `json:"is_validated"`
	CreatedAt    time.Time         `json:"created_at"`
	Selections   []CouponSelection `json:"selections,omitempty"`
}

// CouponSelection is one match prediction inside a coupon, independently
// markable won/lost at settlement.
type CouponSelection struct {
	ID         int       `json:"id"`
	CouponID   int       `json:"coupon_id"`
	Position   int       `json:"position"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	League     string    `json:"league"`
	Prediction string    `json:"prediction"`
	Odds       float64   `json:"odds"`
	KickoffAt  time.Time `json:"kickoff_at"`
	Outcome    *bool     `json:"outcome"`
}

// CouponHistoryEntry records that a user followed a coupon with a stake.
// At most one entry exists per (user, coupon) pair.
type CouponHistoryEntry struct {
	ID                int       `json:"id"`
	UserUID           string    `json:"user_uid"`
	CouponID          int       `json:"coupon_id"`
	Stake             int       `json:"stake"`
	PotentialWinnings float64   `json:"potential_winnings"`
	IsWon             *bool     `json:"is_won"`
	FollowedAt        time.Time `json:"followed_at"`
}

// UserStats are derived counters recomputed on coupon settlement.
type UserStats struct {
	UserUID       string  `json:"user_uid"`
	TotalFollowed int     `json:"total_followed"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Profit        float64 `json:"profit"`
	SuccessRate   float64 `json:"success_rate"`
}

// DummyFollow receives the follow request body.
type DummyFollow struct {
	Stake int `json:"stake" validate:"required,gt=0"`
}

// DummySettle receives the settlement request body. Outcomes maps
// selection id to won/lost; the coupon outcome is the conjunction.
type DummySettle struct {
	Outcomes map[int]bool `json:"outcomes" validate:"required,min=1"`
}

// SettledFollower is one resolved follow entry from a settlement.
type SettledFollower struct {
	UserUID           string
	Stake             int
	PotentialWinnings float64
	Won               bool
}

// CouponFilter narrows coupon listings. Tier filters on the coupon's
// required tier and is intersected with the caller's accessible tiers.
type CouponFilter struct {
	Date      *time.Time
	Tier      *PlanTier
	RiskLevel *RiskLevel
}

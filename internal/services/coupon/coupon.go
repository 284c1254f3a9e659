// Package coupon gates daily coupons by plan tier and handles the
// follow/settle mechanics with their derived stats.
package coupon

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/metrics"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Repository is the storage contract the service depends on.
type Repository interface {
	GetActiveSubscriptionTier(ctx context.Context, userUID string) (models.PlanTier, error)
	ListCoupons(ctx context.Context, tier models.PlanTier, filter models.CouponFilter) ([]*models.DailyCoupon, error)
	GetCoupon(ctx context.Context, id int) (*models.DailyCoupon, error)
	FollowCoupon(ctx context.Context, userUID string, couponID int, stake int, potentialWinnings float64) error
	SettleCoupon(ctx context.Context, couponID int, won bool, outcomes map[int]bool) ([]*models.SettledFollower, error)
	ListCouponHistory(ctx context.Context, userUID string) ([]*models.CouponHistoryEntry, error)
	ListBookmakers(ctx context.Context) ([]*models.Bookmaker, error)
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
}

// Cache describes the read-through cache coupon listings sit behind.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// CouponService applies tier gating on top of the coupon storage.
type CouponService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New creates a CouponService.
func New(repo Repository, cache Cache, log *slog.Logger) *CouponService {
	return &CouponService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// IsAccessible reports whether a user tier may open a coupon tier.
// Only an active subscription counts; everything else is basic.
func IsAccessible(userTier, requiredTier models.PlanTier) bool {
	return userTier.AtLeast(requiredTier)
}

// List returns the coupons visible to the user's current tier. Plain
// date-only listings are cached per tier for a few minutes.
func (s *CouponService) List(ctx context.Context, userUID string, filter models.CouponFilter) ([]*models.DailyCoupon, error) {
	tier, err := s.repo.GetActiveSubscriptionTier(ctx, userUID)
	if err != nil {
		return nil, err
	}

	cacheable := filter.Date != nil && filter.Tier == nil && filter.RiskLevel == nil
	var cacheKey string
	if cacheable {
		cacheKey = fmt.Sprintf("coupons:%s:%s", tier, filter.Date.Format("2006-01-02"))
		var cached []*models.DailyCoupon
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("coupon cache read failed", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	coupons, err := s.repo.ListCoupons(ctx, tier, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.Set(cacheKey, coupons, 5*time.Minute); err != nil {
			s.log.Warn("coupon cache write failed", sl.Err(err))
		}
	}
	return coupons, nil
}

// Read returns one coupon with its selections, enforcing tier access.
func (s *CouponService) Read(ctx context.Context, userUID string, couponID int) (*models.DailyCoupon, error) {
	tier, err := s.repo.GetActiveSubscriptionTier(ctx, userUID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.repo.GetCoupon(ctx, couponID)
	if err != nil {
		return nil, err
	}
	if !IsAccessible(tier, coupon.RequiredTier) {
		return nil, domain.ErrAccessDenied
	}
	return coupon, nil
}

// Follow stakes coins on a coupon. A user follows a coupon at most
// once, needs access to its tier, and cannot follow a settled coupon.
func (s *CouponService) Follow(ctx context.Context, userUID string, couponID int, req models.DummyFollow) error {
	tier, err := s.repo.GetActiveSubscriptionTier(ctx, userUID)
	if err != nil {
		return err
	}
	coupon, err := s.repo.GetCoupon(ctx, couponID)
	if err != nil {
		return err
	}
	if !IsAccessible(tier, coupon.RequiredTier) {
		return domain.ErrAccessDenied
	}
	if coupon.IsValidated != nil {
		return fmt.Errorf("coupon %d already settled: %w", couponID, domain.ErrInvalidState)
	}

	potential := math.Round(float64(req.Stake)*coupon.TotalOdds*100) / 100
	if err := s.repo.FollowCoupon(ctx, userUID, couponID, req.Stake, potential); err != nil {
		return err
	}
	metrics.CouponsFollowed.Inc()
	s.log.Info("coupon followed",
		slog.Int("coupon_id", couponID),
		slog.String("user_uid", userUID),
		slog.Int("stake", req.Stake))
	return nil
}

// Settle records the final outcome of a coupon exactly once. The coupon
// wins only if every selection won; followers' stats and coin balances
// are updated in the same storage transaction.
func (s *CouponService) Settle(ctx context.Context, couponID int, req models.DummySettle) error {
	won := true
	for _, outcome := range req.Outcomes {
		if !outcome {
			won = false
			break
		}
	}

	followers, err := s.repo.SettleCoupon(ctx, couponID, won, req.Outcomes)
	if err != nil {
		return err
	}
	s.invalidateListings(ctx, couponID)
	s.log.Info("coupon settled",
		slog.Int("coupon_id", couponID),
		slog.Bool("won", won),
		slog.Int("followers", len(followers)))

	for _, f := range followers {
		title, content := "Coupon perdu", "Le coupon que vous suiviez n'est pas passé."
		if f.Won {
			title = "Coupon gagné"
			content = fmt.Sprintf("Félicitations, votre coupon est passé ! Gain: %.0f pièces.", f.PotentialWinnings)
		}
		if _, err := s.repo.CreateNotification(ctx, models.Notification{
			UserUID: f.UserUID,
			Kind:    "coupon",
			Title:   title,
			Content: content,
		}); err != nil {
			s.log.Error("failed to create settlement notification", sl.Err(err))
		}
	}
	return nil
}

// invalidateListings drops the cached listings for the day the coupon
// belongs to, so settled state shows up without waiting out the TTL.
func (s *CouponService) invalidateListings(ctx context.Context, couponID int) {
	coupon, err := s.repo.GetCoupon(ctx, couponID)
	if err != nil {
		s.log.Warn("coupon lookup for cache invalidation failed", sl.Err(err))
		return
	}
	day := coupon.CouponDate.Format("2006-01-02")
	for _, tier := range []models.PlanTier{models.TierBasic, models.TierPremium, models.TierVIP} {
		key := fmt.Sprintf("coupons:%s:%s", tier, day)
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("coupon cache invalidation failed", slog.String("key", key), sl.Err(err))
		}
	}
}

// History returns the user's follow history.
func (s *CouponService) History(ctx context.Context, userUID string) ([]*models.CouponHistoryEntry, error) {
	return s.repo.ListCouponHistory(ctx, userUID)
}

// Bookmakers returns the bookmaker catalog.
func (s *CouponService) Bookmakers(ctx context.Context) ([]*models.Bookmaker, error) {
	return s.repo.ListBookmakers(ctx)
}

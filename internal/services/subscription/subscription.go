// Package subscription holds the subscription lifecycle logic: plan
// catalog, subscribe, cancel and listing.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/lib/reference"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Repository is the storage contract the service depends on.
type Repository interface {
	ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error)
	CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error)
	GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error)
	ListSubscriptionsByUser(ctx context.Context, userUID string) ([]*models.UserSubscription, error)
	CancelSubscription(ctx context.Context, id int, at time.Time) error
}

// Cache describes the read-through cache the plan catalog sits behind.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const plansCacheKey = "plans:active"

// SubscriptionService drives the subscription lifecycle.
type SubscriptionService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New creates a SubscriptionService.
func New(repo Repository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListPlans returns the active plan catalog, cached for an hour.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	var plans []*models.SubscriptionPlan
	found, err := s.cache.Get(plansCacheKey, &plans)
	if err != nil {
		s.log.Warn("plan cache read failed", sl.Err(err))
	}
	if found {
		return plans, nil
	}

	plans, err = s.repo.ListPlans(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(plansCacheKey, plans, time.Hour); err != nil {
		s.log.Warn("plan cache write failed", sl.Err(err))
	}
	return plans, nil
}

// Subscribe creates a pending subscription on an active plan. The
// subscription stays pending until a payment verdict arrives; a second
// live subscription for the same user is rejected.
func (s *SubscriptionService) Subscribe(ctx context.Context, userUID string, req models.DummySubscribe) (*models.UserSubscription, error) {
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanNotFound
	}

	now := time.Now().UTC()
	sub := models.UserSubscription{
		UserUID:   userUID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionPending,
		Reference: reference.NewSubscriptionRef(),
		StartDate: now,
		EndDate:   now.AddDate(0, 0, plan.DurationDays),
		AutoRenew: req.AutoRenew,
	}
	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	s.log.Info("created pending subscription",
		slog.Int("id", id),
		slog.String("reference", sub.Reference),
		slog.Int("plan_id", plan.ID))
	return &sub, nil
}

// Get returns one subscription, restricted to its owner.
func (s *SubscriptionService) Get(ctx context.Context, userUID string, id int) (*models.UserSubscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserUID != userUID {
		return nil, domain.ErrAccessDenied
	}
	return sub, nil
}

// List returns the user's subscriptions, newest first.
func (s *SubscriptionService) List(ctx context.Context, userUID string) ([]*models.UserSubscription, error) {
	return s.repo.ListSubscriptionsByUser(ctx, userUID)
}

// Cancel transitions the user's active subscription to canceled.
// Canceling a subscription that is not active returns ErrInvalidState.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID string, id int) error {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return err
	}
	if sub.UserUID != userUID {
		return domain.ErrAccessDenied
	}
	if err := s.repo.CancelSubscription(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return fmt.Errorf("subscription %d is %s: %w", id, sub.Status, domain.ErrInvalidState)
		}
		return err
	}
	s.log.Info("canceled subscription", slog.Int("id", id), slog.String("user_uid", userUID))
	return nil
}

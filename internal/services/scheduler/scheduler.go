// Package scheduler runs the periodic expiry sweep that retires active
// subscriptions past their end date.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/kdiomande/pronostic-platform/internal/lib/rabbitmq"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Repository is the storage contract the sweep depends on.
type Repository interface {
	ExpireDueSubscriptions(ctx context.Context, now time.Time) ([]*models.ExpiredSubscription, error)
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
}

// SchedulerService flips expired subscriptions and fans out the
// notifications. Expiry is driven only by this sweep; reads never
// mutate subscription state.
type SchedulerService struct {
	repo Repository
	log  *slog.Logger
}

// New creates a SchedulerService.
func New(repo Repository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// Run sweeps immediately and then on every tick until ctx is canceled.
func (s *SchedulerService) Run(ctx context.Context, channel *amqp.Channel, interval time.Duration) {
	s.sweep(ctx, channel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, channel)
		}
	}
}

func (s *SchedulerService) sweep(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting subscription expiry sweep")
	expired, err := s.repo.ExpireDueSubscriptions(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("expiry sweep failed", sl.Err(err))
		return
	}
	if len(expired) == 0 {
		s.log.Info("no subscriptions to expire")
		return
	}
	s.log.Info("expired subscriptions", slog.Int("count", len(expired)))

	for _, e := range expired {
		event := models.EmailEvent{
			Kind:      models.EmailKindExpired,
			Email:     e.Email,
			FirstName: e.FirstName,
			EndDate:   e.EndDate.Format("02/01/2006"),
		}
		if err := rabbitmq.PublishMessage(channel, rabbitmq.Exchange, "subscription", event); err != nil {
			s.log.Error("failed to publish expiry email", sl.Err(err))
		}
		if _, err := s.repo.CreateNotification(ctx, models.Notification{
			UserUID: e.UserUID,
			Kind:    "subscription",
			Title:   "Abonnement expiré",
			Content: "Votre abonnement a expiré. Renouvelez-le pour garder l'accès aux coupons.",
		}); err != nil {
			s.log.Error("failed to create expiry notification", sl.Err(err))
		}
	}
}

// Package notification lists user notifications and flips their read flag.
package notification

import (
	"context"
	"log/slog"

	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Repository is the storage contract the service depends on.
type Repository interface {
	ListNotifications(ctx context.Context, userUID string, unreadOnly bool) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userUID string, id int) error
}

// NotificationService exposes the user-facing notification feed.
type NotificationService struct {
	repo Repository
	log  *slog.Logger
}

// New creates a NotificationService.
func New(repo Repository, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo: repo,
		log:  log,
	}
}

// List returns the user's notifications, optionally unread only.
func (s *NotificationService) List(ctx context.Context, userUID string, unreadOnly bool) ([]*models.Notification, error) {
	return s.repo.ListNotifications(ctx, userUID, unreadOnly)
}

// MarkRead flips the read flag. Marking an already-read notification is
// a no-op; a foreign or missing id returns domain.ErrNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, userUID string, id int) error {
	return s.repo.MarkNotificationRead(ctx, userUID, id)
}

package repository

import (
	"context"
	"fmt"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// CreateNotification appends one notification row.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (int, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO notifications (user_uid, kind, title, content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, n.UserUID, n.Kind, n.Title, n.Content).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *Storage) ListNotifications(ctx context.Context, userUID string, unreadOnly bool) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, kind, title, content, is_read, created_at
			  FROM notifications
			  WHERE user_uid = $1`
	if unreadOnly {
		query += " AND NOT is_read"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserUID, &n.Kind, &n.Title, &n.Content,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead flips the read flag for one of the user's
// notifications. Scoping on user_uid keeps one user from touching
// another's rows.
func (s *Storage) MarkNotificationRead(ctx context.Context, userUID string, id int) error {
	const op = "storage.MarkNotificationRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE notifications SET is_read = TRUE
			  WHERE id = $1 AND user_uid = $2 AND NOT is_read`
	result, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		exists := `SELECT 1 FROM notifications WHERE id = $1 AND user_uid = $2`
		var one int
		if scanErr := s.DB.QueryRowContext(ctx, exists, id, userUID).Scan(&one); scanErr != nil {
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		// Already read; treat as done.
	}
	return nil
}

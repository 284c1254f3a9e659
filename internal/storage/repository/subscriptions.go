package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// CreateSubscription inserts a pending subscription and returns its id.
// The partial unique index on live subscriptions turns a second live
// subscription for the same user into domain.ErrActiveSubscriptionExists.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_subscriptions (user_uid, plan_id, status, reference,
			      start_date, end_date, auto_renew)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanID, sub.Status, sub.Reference,
		sub.StartDate, sub.EndDate, sub.AutoRenew).Scan(&newID)
	if err != nil {
		if uniqueViolation(err, "uq_live_subscription_per_user") {
			return 0, fmt.Errorf("%s: %w", op, domain.ErrActiveSubscriptionExists)
		}
		if uniqueViolation(err, "") {
			return 0, fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetSubscription returns one subscription by id.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, status, reference, external_transaction_id,
			      invoice_token, start_date, end_date, auto_renew
			  FROM user_subscriptions
			  WHERE id = $1`
	return scanSubscription(s.DB.QueryRowContext(ctx, query, id), op)
}

// ListSubscriptionsByUser returns all subscriptions of a user, newest first.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userUID string) ([]*models.UserSubscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, status, reference, external_transaction_id,
			      invoice_token, start_date, end_date, auto_renew
			  FROM user_subscriptions
			  WHERE user_uid = $1
			  ORDER BY id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserSubscription
	for rows.Next() {
		var item models.UserSubscription
		var extID, token sql.NullString
		if err := rows.Scan(&item.ID, &item.UserUID, &item.PlanID, &item.Status,
			&item.Reference, &extID, &token, &item.StartDate, &item.EndDate,
			&item.AutoRenew); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if extID.Valid {
			item.ExternalTransactionID = &extID.String
		}
		if token.Valid {
			item.InvoiceToken = &token.String
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetActiveSubscriptionTier resolves the plan tier of the user's active
// subscription. Absence of an active subscription degrades to basic,
// whatever plan the user last held.
func (s *Storage) GetActiveSubscriptionTier(ctx context.Context, userUID string) (models.PlanTier, error) {
	const op = "storage.GetActiveSubscriptionTier"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.tier
			  FROM user_subscriptions s
			  JOIN subscription_plans p ON p.id = s.plan_id
			  WHERE s.user_uid = $1 AND s.status = 'active' AND s.end_date > now()
			  ORDER BY s.id DESC
			  LIMIT 1`
	var tier models.PlanTier
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&tier)
	if err == sql.ErrNoRows {
		return models.TierBasic, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return tier, nil
}

// SetInvoiceToken stamps the latest checkout token on a subscription.
func (s *Storage) SetInvoiceToken(ctx context.Context, id int, token string) error {
	const op = "storage.SetInvoiceToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions SET invoice_token = $1 WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// CancelSubscription transitions active -> canceled and stamps end_date.
// The status precondition makes the transition a compare-and-set.
func (s *Storage) CancelSubscription(ctx context.Context, id int, at time.Time) error {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions
			  SET status = 'canceled', end_date = $2
			  WHERE id = $1 AND status = 'active'`
	result, err := s.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetSubscription(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidState)
	}
	return nil
}

// ExpireDueSubscriptions flips every active subscription past its end
// date to expired in one statement and returns the affected users.
func (s *Storage) ExpireDueSubscriptions(ctx context.Context, now time.Time) ([]*models.ExpiredSubscription, error) {
	const op = "storage.ExpireDueSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions s
			  SET status = 'expired'
			  FROM users u
			  WHERE u.uid = s.user_uid
			    AND s.status = 'active'
			    AND s.end_date <= $1
			  RETURNING s.id, s.user_uid, u.email, u.first_name, s.end_date`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiredSubscription
	for rows.Next() {
		var e models.ExpiredSubscription
		if err := rows.Scan(&e.SubscriptionID, &e.UserUID, &e.Email, &e.FirstName, &e.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscription(row *sql.Row, op string) (*models.UserSubscription, error) {
	var item models.UserSubscription
	var extID, token sql.NullString
	if err := row.Scan(&item.ID, &item.UserUID, &item.PlanID, &item.Status,
		&item.Reference, &extID, &token, &item.StartDate, &item.EndDate,
		&item.AutoRenew); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if extID.Valid {
		item.ExternalTransactionID = &extID.String
	}
	if token.Valid {
		item.InvoiceToken = &token.String
	}
	return &item, nil
}

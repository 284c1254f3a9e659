package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// CreateTransaction appends a pending ledger row for a payment attempt.
func (s *Storage) CreateTransaction(ctx context.Context, tr models.Transaction) (int, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transactions (subscription_id, user_uid, amount_xof, invoice_token,
			      payment_method, payment_phone, status, provider_detail)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		tr.SubscriptionID, tr.UserUID, tr.AmountXOF, tr.InvoiceToken,
		tr.PaymentMethod, tr.PaymentPhone, tr.Status, tr.ProviderDetail).Scan(&newID)
	if err != nil {
		if uniqueViolation(err, "") {
			return 0, fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTransactionByInvoiceToken loads the ledger row for a checkout token.
func (s *Storage) GetTransactionByInvoiceToken(ctx context.Context, token string) (*models.Transaction, error) {
	const op = "storage.GetTransactionByInvoiceToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscription_id, user_uid, amount_xof, invoice_token,
			      external_transaction_id, payment_method, payment_phone, status,
			      provider_detail, created_at, updated_at
			  FROM transactions
			  WHERE invoice_token = $1`
	var tr models.Transaction
	var extID sql.NullString
	err := s.DB.QueryRowContext(ctx, query, token).Scan(
		&tr.ID, &tr.SubscriptionID, &tr.UserUID, &tr.AmountXOF, &tr.InvoiceToken,
		&extID, &tr.PaymentMethod, &tr.PaymentPhone, &tr.Status,
		&tr.ProviderDetail, &tr.CreatedAt, &tr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if extID.Valid {
		tr.ExternalTransactionID = &extID.String
	}
	return &tr, nil
}

// ConfirmTransaction reconciles a provider verdict into the ledger and
// the subscription inside one database transaction. Both updates are
// guarded on status = 'pending', so replaying the same verdict is a
// no-op: Applied is false and nothing changes. A verdict for a pending
// ledger row whose subscription already left pending (an earlier
// checkout attempt won) still settles the ledger row, with Applied
// false and the subscription untouched.
func (s *Storage) ConfirmTransaction(ctx context.Context, invoiceToken string,
	status models.TransactionStatus, externalTransactionID string, providerDetail []byte) (*models.PaymentReconciliation, error) {
	const op = "storage.ConfirmTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !status.Terminal() {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidState)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updateLedger := `UPDATE transactions
			  SET status = $2, external_transaction_id = $3, provider_detail = $4,
			      updated_at = now()
			  WHERE invoice_token = $1 AND status = 'pending'
			  RETURNING subscription_id`
	var subscriptionID int
	err = tx.QueryRowContext(ctx, updateLedger, invoiceToken, status,
		externalTransactionID, providerDetail).Scan(&subscriptionID)
	if err == sql.ErrNoRows {
		// Already reconciled, or the token is unknown.
		existing, lookupErr := s.GetTransactionByInvoiceToken(ctx, invoiceToken)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return &models.PaymentReconciliation{Applied: false, SubscriptionID: existing.SubscriptionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subStatus := models.SubscriptionCanceled
	if status == models.TransactionCompleted {
		subStatus = models.SubscriptionActive
	}
	updateSub := `UPDATE user_subscriptions s
			  SET status = $2,
			      external_transaction_id = $3,
			      start_date = CASE WHEN $2 = 'active' THEN now() ELSE s.start_date END,
			      end_date = CASE WHEN $2 = 'active'
			          THEN now() + make_interval(days => p.duration_days)
			          ELSE s.end_date END
			  FROM subscription_plans p, users u
			  WHERE s.id = $1 AND s.status = 'pending'
			    AND p.id = s.plan_id AND u.uid = s.user_uid
			  RETURNING s.user_uid, u.email, u.first_name, p.name, s.end_date`
	confirmed := models.PaymentReconciliation{Applied: true, SubscriptionID: subscriptionID}
	err = tx.QueryRowContext(ctx, updateSub, subscriptionID, subStatus,
		externalTransactionID).Scan(&confirmed.UserUID, &confirmed.Email,
		&confirmed.FirstName, &confirmed.PlanName, &confirmed.EndDate)
	if err == sql.ErrNoRows {
		// The subscription was already decided by another attempt.
		// Keep the ledger settlement so this attempt stays terminal.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &models.PaymentReconciliation{Applied: false, SubscriptionID: subscriptionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &confirmed, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// RegisterUser stores a new inactive user and returns their uid.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, password_hash, first_name, last_name,
			      is_active, verification_token)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.VerificationToken).Scan(&newUID)
	if err != nil {
		if uniqueViolation(err, "") {
			return "", fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail returns a user by email, domain.ErrNotFound if unknown.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, first_name, last_name,
			      is_active, is_staff, coin_balance, verification_token, created_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser returns a user by uid.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, first_name, last_name,
			      is_active, is_staff, coin_balance, verification_token, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var token sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &u.CoinBalance, &token, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if token.Valid {
		u.VerificationToken = &token.String
	}
	return u, nil
}

// ConsumeVerificationToken activates the inactive user holding token and
// clears it. The single UPDATE makes consumption atomic: a replay finds
// no matching row and fails.
func (s *Storage) ConsumeVerificationToken(ctx context.Context, token string) error {
	const op = "storage.ConsumeVerificationToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_active = TRUE, verification_token = NULL
			  WHERE verification_token = $1 AND is_active = FALSE`
	result, err := s.DB.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidToken)
	}
	return nil
}

// GetUserStats returns the derived counters, zeroed if none exist yet.
func (s *Storage) GetUserStats(ctx context.Context, userUID string) (*models.UserStats, error) {
	const op = "storage.GetUserStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, total_followed, wins, losses, profit, success_rate
			  FROM user_stats
			  WHERE user_uid = $1`
	st := &models.UserStats{}
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&st.UserUID, &st.TotalFollowed, &st.Wins, &st.Losses, &st.Profit, &st.SuccessRate)
	if err == sql.ErrNoRows {
		return &models.UserStats{UserUID: userUID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// ListCoupons returns coupons whose required tier is covered by the
// given tier, optionally narrowed by date and risk level. Selections
// are not loaded here, only in GetCoupon.
func (s *Storage) ListCoupons(ctx context.Context, tier models.PlanTier, filter models.CouponFilter) ([]*models.DailyCoupon, error) {
	const op = "storage.ListCoupons"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, bookmaker_id, coupon_date, required_tier, risk_level,
			      total_odds, is_validated, created_at
			  FROM daily_coupons
			  WHERE required_tier = ANY($1)`
	args := []any{accessibleTiers(tier)}
	argN := 2
	if filter.Date != nil {
		query += fmt.Sprintf(" AND coupon_date = $%d", argN)
		args = append(args, *filter.Date)
		argN++
	}
	if filter.Tier != nil {
		query += fmt.Sprintf(" AND required_tier = $%d", argN)
		args = append(args, *filter.Tier)
		argN++
	}
	if filter.RiskLevel != nil {
		query += fmt.Sprintf(" AND risk_level = $%d", argN)
		args = append(args, *filter.RiskLevel)
	}
	query += " ORDER BY coupon_date DESC, id DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DailyCoupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCoupon loads one coupon with its selections, ordered by position.
func (s *Storage) GetCoupon(ctx context.Context, id int) (*models.DailyCoupon, error) {
	const op = "storage.GetCoupon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, bookmaker_id, coupon_date, required_tier, risk_level,
			      total_odds, is_validated, created_at
			  FROM daily_coupons
			  WHERE id = $1`
	c, err := scanCoupon(s.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	selQuery := `SELECT id, coupon_id, position, home_team, away_team, league,
			      prediction, odds, kickoff_at, outcome
			  FROM coupon_selections
			  WHERE coupon_id = $1
			  ORDER BY position, id`
	rows, err := s.DB.QueryContext(ctx, selQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var sel models.CouponSelection
		var outcome sql.NullBool
		if err := rows.Scan(&sel.ID, &sel.CouponID, &sel.Position, &sel.HomeTeam,
			&sel.AwayTeam, &sel.League, &sel.Prediction, &sel.Odds,
			&sel.KickoffAt, &outcome); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if outcome.Valid {
			sel.Outcome = &outcome.Bool
		}
		c.Selections = append(c.Selections, sel)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// FollowCoupon records the follow, debits the stake from the user's
// coin balance, and bumps the followed counter, all in one transaction.
func (s *Storage) FollowCoupon(ctx context.Context, userUID string, couponID int, stake int, potentialWinnings float64) error {
	const op = "storage.FollowCoupon"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `INSERT INTO user_coupon_history (user_uid, coupon_id, stake, potential_winnings)
			  VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insert, userUID, couponID, stake, potentialWinnings); err != nil {
		if uniqueViolation(err, "uq_user_coupon") {
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyFollowed)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	// The balance precondition keeps the debit atomic with the check.
	debit := `UPDATE users SET coin_balance = coin_balance - $2
			  WHERE uid = $1 AND coin_balance >= $2`
	result, err := tx.ExecContext(ctx, debit, userUID, stake)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInsufficientCoins)
	}

	bump := `INSERT INTO user_stats (user_uid, total_followed)
			  VALUES ($1, 1)
			  ON CONFLICT (user_uid)
			  DO UPDATE SET total_followed = user_stats.total_followed + 1`
	if _, err := tx.ExecContext(ctx, bump, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SettleCoupon validates a coupon exactly once, stamps the per-selection
// outcomes, resolves every follower's history row, and updates derived
// stats. Winners get their potential winnings credited back as coins.
func (s *Storage) SettleCoupon(ctx context.Context, couponID int, won bool, outcomes map[int]bool) ([]*models.SettledFollower, error) {
	const op = "storage.SettleCoupon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	validate := `UPDATE daily_coupons SET is_validated = $2
			  WHERE id = $1 AND is_validated IS NULL`
	result, err := tx.ExecContext(ctx, validate, couponID, won)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetCoupon(ctx, couponID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidState)
	}

	mark := `UPDATE coupon_selections SET outcome = $3
			  WHERE id = $1 AND coupon_id = $2`
	for selectionID, outcome := range outcomes {
		if _, err := tx.ExecContext(ctx, mark, selectionID, couponID, outcome); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	resolve := `UPDATE user_coupon_history SET is_won = $2
			  WHERE coupon_id = $1 AND is_won IS NULL
			  RETURNING user_uid, stake, potential_winnings`
	rows, err := tx.QueryContext(ctx, resolve, couponID, won)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var followers []*models.SettledFollower
	for rows.Next() {
		f := models.SettledFollower{Won: won}
		if err := rows.Scan(&f.UserUID, &f.Stake, &f.PotentialWinnings); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		followers = append(followers, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()

	credit := `UPDATE users SET coin_balance = coin_balance + $2 WHERE uid = $1`
	stats := `UPDATE user_stats
			  SET wins = wins + $2,
			      losses = losses + $3,
			      profit = profit + $4,
			      success_rate = (wins + $2)::double precision / NULLIF(wins + losses + 1, 0)
			  WHERE user_uid = $1`
	for _, f := range followers {
		wonInc, lostInc := 0, 1
		profit := -float64(f.Stake)
		if won {
			wonInc, lostInc = 1, 0
			profit = f.PotentialWinnings - float64(f.Stake)
			if _, err := tx.ExecContext(ctx, credit, f.UserUID, int(math.Round(f.PotentialWinnings))); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		if _, err := tx.ExecContext(ctx, stats, f.UserUID, wonInc, lostInc, profit); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return followers, nil
}

// ListCouponHistory returns the user's follow history, newest first.
func (s *Storage) ListCouponHistory(ctx context.Context, userUID string) ([]*models.CouponHistoryEntry, error) {
	const op = "storage.ListCouponHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, coupon_id, stake, potential_winnings, is_won, followed_at
			  FROM user_coupon_history
			  WHERE user_uid = $1
			  ORDER BY followed_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CouponHistoryEntry
	for rows.Next() {
		var entry models.CouponHistoryEntry
		var isWon sql.NullBool
		if err := rows.Scan(&entry.ID, &entry.UserUID, &entry.CouponID, &entry.Stake,
			&entry.PotentialWinnings, &isWon, &entry.FollowedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if isWon.Valid {
			entry.IsWon = &isWon.Bool
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListBookmakers returns all bookmakers ordered by rating.
func (s *Storage) ListBookmakers(ctx context.Context) ([]*models.Bookmaker, error) {
	const op = "storage.ListBookmakers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, logo_url, rating FROM bookmakers ORDER BY rating DESC, name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Bookmaker
	for rows.Next() {
		var b models.Bookmaker
		if err := rows.Scan(&b.ID, &b.Name, &b.LogoURL, &b.Rating); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanCoupon(row rowScanner) (*models.DailyCoupon, error) {
	var c models.DailyCoupon
	var validated sql.NullBool
	if err := row.Scan(&c.ID, &c.BookmakerID, &c.CouponDate, &c.RequiredTier,
		&c.RiskLevel, &c.TotalOdds, &validated, &c.CreatedAt); err != nil {
		return nil, err
	}
	if validated.Valid {
		c.IsValidated = &validated.Bool
	}
	return &c, nil
}

// accessibleTiers maps a user's tier to the coupon tiers it covers.
// The ladder is cumulative: premium covers basic, vip covers all.
func accessibleTiers(tier models.PlanTier) []string {
	switch tier {
	case models.TierVIP:
		return []string{string(models.TierBasic), string(models.TierPremium), string(models.TierVIP)}
	case models.TierPremium:
		return []string{string(models.TierBasic), string(models.TierPremium)}
	default:
		return []string{string(models.TierBasic)}
	}
}

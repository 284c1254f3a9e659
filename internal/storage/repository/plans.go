package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// ListPlans returns the plan catalog, optionally only active plans.
func (s *Storage) ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, tier, price_xof, duration_days, features, is_active
			  FROM subscription_plans`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price_xof`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlan returns one plan by id, domain.ErrPlanNotFound if unknown.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, tier, price_xof, duration_days, features, is_active
			  FROM subscription_plans
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var p models.SubscriptionPlan
	var features []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Tier, &p.PriceXOF, &p.DurationDays,
		&features, &p.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(r rowScanner) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	var features []byte
	if err := r.Scan(&p.ID, &p.Name, &p.Tier, &p.PriceXOF, &p.DurationDays,
		&features, &p.IsActive); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, err
	}
	return &p, nil
}

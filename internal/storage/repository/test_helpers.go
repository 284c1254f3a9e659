package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kdiomande/pronostic-platform/internal/migrations"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// TestDataFactory seeds rows the repository tests depend on.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory creates a factory bound to one test database.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser inserts an active user and returns the generated uid.
func (f *TestDataFactory) CreateUser(t *testing.T, email string, coinBalance int, isStaff bool) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users
		(email, password_hash, first_name, last_name, is_active, is_staff, coin_balance)
		VALUES ($1, 'hashedpassword', 'Test', 'User', TRUE, $2, $3)
		RETURNING uid`,
		email, isStaff, coinBalance).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateInactiveUser inserts an unverified user holding token.
func (f *TestDataFactory) CreateInactiveUser(t *testing.T, email, token string) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users
		(email, password_hash, is_active, verification_token)
		VALUES ($1, 'hashedpassword', FALSE, $2)
		RETURNING uid`,
		email, token).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreatePlan inserts a subscription plan.
func (f *TestDataFactory) CreatePlan(t *testing.T, name string, tier models.PlanTier, priceXOF, durationDays int, active bool) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_plans
		(name, tier, price_xof, duration_days, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		name, tier, priceXOF, durationDays, active).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription inserts a subscription in the given status.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID string, planID int,
	status models.SubscriptionStatus, reference string, endDate time.Time) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO user_subscriptions
		(user_uid, plan_id, status, reference, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		userUID, planID, status, reference, endDate).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateBookmaker inserts a bookmaker.
func (f *TestDataFactory) CreateBookmaker(t *testing.T, name string, rating float64) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO bookmakers (name, rating)
		VALUES ($1, $2) RETURNING id`, name, rating).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateCoupon inserts an unsettled daily coupon.
func (f *TestDataFactory) CreateCoupon(t *testing.T, bookmakerID int, date time.Time,
	tier models.PlanTier, risk models.RiskLevel, totalOdds float64) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO daily_coupons
		(bookmaker_id, coupon_date, required_tier, risk_level, total_odds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		bookmakerID, date, tier, risk, totalOdds).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSelection inserts one selection on a coupon.
func (f *TestDataFactory) CreateSelection(t *testing.T, couponID, position int, prediction string, odds float64) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO coupon_selections
		(coupon_id, position, home_team, away_team, prediction, odds, kickoff_at)
		VALUES ($1, $2, 'Home FC', 'Away FC', $3, $4, now() + interval '2 hours')
		RETURNING id`,
		couponID, position, prediction, odds).Scan(&id)
	require.NoError(t, err)
	return id
}

// CoinBalance reads a user's current coin balance.
func (f *TestDataFactory) CoinBalance(t *testing.T, userUID string) int {
	var balance int
	err := f.storage.DB.QueryRow(`SELECT coin_balance FROM users WHERE uid = $1`, userUID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// setupTestDatabase starts a throwaway PostgreSQL container and applies
// the real migrations against it.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil && storage.DB.Ping() == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"), "failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}

package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}

func (m *MockRepository) GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *MockRepository) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}

func (m *MockRepository) ListSubscriptionsByUser(ctx context.Context, userUID string) ([]*models.UserSubscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserSubscription), args.Error(1)
}

func (m *MockRepository) CancelSubscription(ctx context.Context, id int, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriptionService_ListPlans(t *testing.T) {
	plans := []*models.SubscriptionPlan{
		{ID: 1, Name: "Basic", Tier: models.TierBasic, PriceXOF: 2000, DurationDays: 30, IsActive: true},
		{ID: 2, Name: "Premium", Tier: models.TierPremium, PriceXOF: 5000, DurationDays: 30, IsActive: true},
	}

	t.Run("cache miss loads from storage and fills the cache", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		cache.On("Get", "plans:active", mock.Anything).Return(false, nil)
		repo.On("ListPlans", mock.Anything, true).Return(plans, nil)
		cache.On("Set", "plans:active", plans, time.Hour).Return(nil)
		svc := New(repo, cache, newNoopLogger())

		got, err := svc.ListPlans(context.Background())

		require.NoError(t, err)
		assert.Len(t, got, 2)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips storage", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		cache.On("Get", "plans:active", mock.Anything).Return(true, nil)
		svc := New(repo, cache, newNoopLogger())

		_, err := svc.ListPlans(context.Background())

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ListPlans", mock.Anything, mock.Anything)
	})

	t.Run("cache read failure falls back to storage", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		cache.On("Get", "plans:active", mock.Anything).Return(false, assert.AnError)
		repo.On("ListPlans", mock.Anything, true).Return(plans, nil)
		cache.On("Set", "plans:active", plans, time.Hour).Return(nil)
		svc := New(repo, cache, newNoopLogger())

		got, err := svc.ListPlans(context.Background())

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	cases := []struct {
		name       string
		req        models.DummySubscribe
		setupMocks func(repo *MockRepository)
		wantErr    error
	}{
		{
			name: "pending subscription on an active plan",
			req:  models.DummySubscribe{PlanID: 2, AutoRenew: true},
			setupMocks: func(repo *MockRepository) {
				repo.On("GetPlan", mock.Anything, 2).Return(&models.SubscriptionPlan{
					ID: 2, Name: "Premium", Tier: models.TierPremium, DurationDays: 30, IsActive: true,
				}, nil)
				repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.UserSubscription) bool {
					return sub.UserUID == "uid-42" &&
						sub.PlanID == 2 &&
						sub.Status == models.SubscriptionPending &&
						sub.Reference != "" &&
						sub.AutoRenew &&
						sub.EndDate.Sub(sub.StartDate) == 30*24*time.Hour
				})).Return(11, nil)
			},
		},
		{
			name: "unknown plan",
			req:  models.DummySubscribe{PlanID: 99},
			setupMocks: func(repo *MockRepository) {
				repo.On("GetPlan", mock.Anything, 99).Return(nil, domain.ErrPlanNotFound)
			},
			wantErr: domain.ErrPlanNotFound,
		},
		{
			name: "retired plan is treated as unknown",
			req:  models.DummySubscribe{PlanID: 3},
			setupMocks: func(repo *MockRepository) {
				repo.On("GetPlan", mock.Anything, 3).Return(&models.SubscriptionPlan{
					ID: 3, Name: "Legacy VIP", Tier: models.TierVIP, IsActive: false,
				}, nil)
			},
			wantErr: domain.ErrPlanNotFound,
		},
		{
			name: "second live subscription is rejected",
			req:  models.DummySubscribe{PlanID: 2},
			setupMocks: func(repo *MockRepository) {
				repo.On("GetPlan", mock.Anything, 2).Return(&models.SubscriptionPlan{
					ID: 2, DurationDays: 30, IsActive: true,
				}, nil)
				repo.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(0, domain.ErrActiveSubscriptionExists)
			},
			wantErr: domain.ErrActiveSubscriptionExists,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			tc.setupMocks(repo)
			svc := New(repo, new(MockCache), newNoopLogger())

			sub, err := svc.Subscribe(context.Background(), "uid-42", tc.req)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, sub)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 11, sub.ID)
				assert.Equal(t, models.SubscriptionPending, sub.Status)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Get(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetSubscription", mock.Anything, 7).Return(&models.UserSubscription{
		ID: 7, UserUID: "uid-42", Status: models.SubscriptionActive,
	}, nil)
	svc := New(repo, new(MockCache), newNoopLogger())

	sub, err := svc.Get(context.Background(), "uid-42", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, sub.ID)

	_, err = svc.Get(context.Background(), "uid-other", 7)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestSubscriptionService_Cancel(t *testing.T) {
	cases := []struct {
		name       string
		userUID    string
		setupMocks func(repo *MockRepository)
		wantErr    error
	}{
		{
			name:    "owner cancels an active subscription",
			userUID: "uid-42",
			setupMocks: func(repo *MockRepository) {
				repo.On("GetSubscription", mock.Anything, 7).Return(&models.UserSubscription{
					ID: 7, UserUID: "uid-42", Status: models.SubscriptionActive,
				}, nil)
				repo.On("CancelSubscription", mock.Anything, 7, mock.Anything).Return(nil)
			},
		},
		{
			name:    "not the owner",
			userUID: "uid-other",
			setupMocks: func(repo *MockRepository) {
				repo.On("GetSubscription", mock.Anything, 7).Return(&models.UserSubscription{
					ID: 7, UserUID: "uid-42", Status: models.SubscriptionActive,
				}, nil)
			},
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "canceling a pending subscription",
			userUID: "uid-42",
			setupMocks: func(repo *MockRepository) {
				repo.On("GetSubscription", mock.Anything, 7).Return(&models.UserSubscription{
					ID: 7, UserUID: "uid-42", Status: models.SubscriptionPending,
				}, nil)
				repo.On("CancelSubscription", mock.Anything, 7, mock.Anything).Return(domain.ErrInvalidState)
			},
			wantErr: domain.ErrInvalidState,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			tc.setupMocks(repo)
			svc := New(repo, new(MockCache), newNoopLogger())

			err := svc.Cancel(context.Background(), tc.userUID, 7)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

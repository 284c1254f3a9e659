package list

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

type CouponServiceMock struct {
	mock.Mock
}

func (m *CouponServiceMock) List(ctx context.Context, userUID string, filter models.CouponFilter) ([]*models.DailyCoupon, error) {
	args := m.Called(ctx, userUID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyCoupon), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(query string, withUser bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/coupons"+query, nil)

	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	if withUser {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-42")
	}
	return req.WithContext(ctx)
}

func TestListHandler_ServeHTTP(t *testing.T) {
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	premium := models.TierPremium
	high := models.RiskHigh
	coupons := []*models.DailyCoupon{
		{ID: 1, RequiredTier: models.TierPremium, RiskLevel: models.RiskHigh, TotalOdds: 4.2},
	}

	tests := []struct {
		name           string
		query          string
		withUser       bool
		wantFilter     *models.CouponFilter
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "no filters",
			query:          "",
			withUser:       true,
			wantFilter:     &models.CouponFilter{},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "date, plan type and risk filters parsed",
			query:          "?date=2026-08-31&plan_type=premium&risk_level=high",
			withUser:       true,
			wantFilter:     &models.CouponFilter{Date: &day, Tier: &premium, RiskLevel: &high},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing user context",
			query:          "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
		},
		{
			name:           "malformed date",
			query:          "?date=31-08-2026",
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid date, expected YYYY-MM-DD",
		},
		{
			name:           "unknown plan type",
			query:          "?plan_type=platinum",
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid plan type",
		},
		{
			name:           "unknown risk level",
			query:          "?risk_level=extreme",
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid risk level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(CouponServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.wantFilter != nil {
				serviceMock.On("List", mock.Anything, "uid-42", *tt.wantFilter).
					Return(coupons, nil).Once()
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(tt.query, tt.withUser))

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}

package follow

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

type CouponServiceMock struct {
	mock.Mock
}

func (m *CouponServiceMock) Follow(ctx context.Context, userUID string, couponID int, req models.DummyFollow) error {
	args := m.Called(ctx, userUID, couponID, req)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(t *testing.T, couponID string, body interface{}, withUser bool) *http.Request {
	t.Helper()

	var bodyBytes []byte
	switch v := body.(type) {
	case string:
		bodyBytes = []byte(v)
	default:
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/coupons/"+couponID+"/follow", bytes.NewReader(bodyBytes))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", couponID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
	if withUser {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-42")
	}
	return req.WithContext(ctx)
}

func TestFollowHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		couponID       string
		requestBody    interface{}
		withUser       bool
		mockErr        error
		callService    bool
		wantStatusCode int
		wantError      string
		wantStatus     string
	}{
		{
			name:           "valid follow",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 100},
			withUser:       true,
			callService:    true,
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "missing user context",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 100},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
			wantStatus:     "Error",
		},
		{
			name:           "invalid coupon id",
			couponID:       "abc",
			requestBody:    models.DummyFollow{Stake: 100},
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid coupon id",
			wantStatus:     "Error",
		},
		{
			name:           "zero stake fails validation",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 0},
			withUser:       true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "tier below coupon requirement",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 100},
			withUser:       true,
			mockErr:        domain.ErrAccessDenied,
			callService:    true,
			wantStatusCode: http.StatusForbidden,
			wantError:      "access denied",
			wantStatus:     "Error",
		},
		{
			name:           "already followed",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 100},
			withUser:       true,
			mockErr:        domain.ErrAlreadyFollowed,
			callService:    true,
			wantStatusCode: http.StatusConflict,
			wantError:      "coupon already followed",
			wantStatus:     "Error",
		},
		{
			name:           "insufficient coins",
			couponID:       "7",
			requestBody:    models.DummyFollow{Stake: 100},
			withUser:       true,
			mockErr:        domain.ErrInsufficientCoins,
			callService:    true,
			wantStatusCode: http.StatusConflict,
			wantError:      "insufficient coin balance",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(CouponServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callService {
				serviceMock.On("Follow", mock.Anything, "uid-42", 7, mock.Anything).
					Return(tt.mockErr).Once()
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(t, tt.couponID, tt.requestBody, tt.withUser))

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kdiomande/pronostic-platform/internal/domain"
)

type PaymentServiceMock struct {
	mock.Mock
}

func (m *PaymentServiceMock) HandleWebhook(ctx context.Context, invoiceToken, providerStatus, externalTransactionID string, raw []byte) error {
	args := m.Called(ctx, invoiceToken, providerStatus, externalTransactionID, raw)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	const secret = "webhook-secret"

	body := []byte(`{"invoice":{"token":"inv-123","status":"completed","transaction_id":"tx-9"}}`)

	tests := []struct {
		name           string
		body           []byte
		signature      string
		mockErr        error
		callService    bool
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "valid signed delivery",
			body:           body,
			signature:      sign(secret, body),
			callService:    true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "bad signature never reaches the service",
			body:           body,
			signature:      sign("other-secret", body),
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "missing signature",
			body:           body,
			signature:      "",
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "unknown invoice token is acknowledged",
			body:           body,
			signature:      sign(secret, body),
			mockErr:        domain.ErrNotFound,
			callService:    true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "processing failure triggers provider retry",
			body:           body,
			signature:      sign(secret, body),
			mockErr:        errors.New("db down"),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
		{
			name:           "signed but malformed payload",
			body:           []byte("{broken"),
			signature:      sign(secret, []byte("{broken")),
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(PaymentServiceMock)
			handler := New(newNoopLogger(), serviceMock, secret)

			if tt.callService {
				serviceMock.On("HandleWebhook", mock.Anything, "inv-123", "completed", "tx-9", tt.body).
					Return(tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])

			if !tt.callService {
				serviceMock.AssertNotCalled(t, "HandleWebhook",
					mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			serviceMock.AssertExpectations(t)
		})
	}
}

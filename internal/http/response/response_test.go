package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
)

func TestEnvelopes(t *testing.T) {
	ok := OK()
	assert.Equal(t, StatusOK, ok.Status)
	assert.Empty(t, ok.Error)
	assert.Nil(t, ok.Data)

	withData := OKWithData(map[string]int{"id": 7})
	assert.Equal(t, StatusOK, withData.Status)
	assert.NotNil(t, withData.Data)

	errResp := Error("something broke")
	assert.Equal(t, StatusError, errResp.Status)
	assert.Equal(t, "something broke", errResp.Error)
}

func TestValidationError(t *testing.T) {
	type form struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
		PlanID   int    `validate:"required,gt=0"`
	}

	v := validator.New()

	err := v.Struct(form{Email: "not-an-email", Password: "short", PlanID: 1})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	resp := ValidationError(verrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Password is too short")

	err = v.Struct(form{})
	require.ErrorAs(t, err, &verrs)
	resp = ValidationError(verrs)
	assert.Contains(t, resp.Error, "field Email is a required field")
	assert.Contains(t, resp.Error, "field Password is a required field")
	assert.Contains(t, resp.Error, "field PlanID is a required field")
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{domain.ErrPlanNotFound, http.StatusBadRequest, "unknown or inactive plan"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrAccountInactive, http.StatusUnauthorized, "account is not activated"},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
		{domain.ErrAccessDenied, http.StatusForbidden, "access denied"},
		{domain.ErrNotFound, http.StatusNotFound, "not found"},
		{domain.ErrAlreadyFollowed, http.StatusConflict, "coupon already followed"},
		{domain.ErrActiveSubscriptionExists, http.StatusConflict, "a live subscription already exists"},
		{domain.ErrInvalidState, http.StatusConflict, "operation not allowed in the current state"},
		{domain.ErrInsufficientCoins, http.StatusConflict, "insufficient coin balance"},
		{domain.ErrConflict, http.StatusConflict, "conflict"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.wantMsg, func(t *testing.T) {
			status, resp := StatusForError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMsg, resp.Error)
		})
	}
}

func TestStatusForError_WrappedErrorsStillMap(t *testing.T) {
	status, resp := StatusForError(fmt.Errorf("service: subscribe: %w", domain.ErrActiveSubscriptionExists))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "a live subscription already exists", resp.Error)
}

func TestStatusForError_Gateway(t *testing.T) {
	status, resp := StatusForError(fmt.Errorf("create invoice: %w", &paymentgateway.GatewayError{
		StatusCode: 503,
		Body:       []byte("maintenance"),
	}))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "payment provider error: maintenance", resp.Error)

	status, resp = StatusForError(fmt.Errorf("operator senegal/orange-money requires an OTP code: %w", paymentgateway.ErrMissingField))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Error, "missing required payment field")
}

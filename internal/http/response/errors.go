package response

import (
	"errors"
	"net/http"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
)

// StatusForError maps a service error to an HTTP status and a message
// safe to show the client. Unknown errors collapse to 500 with a
// generic message; gateway failures surface the provider's status.
func StatusForError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		return http.StatusBadRequest, Error("unknown or inactive plan")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error("invalid credentials")
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusUnauthorized, Error("account is not activated")
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, Error("invalid or expired token")
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, Error("access denied")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, Error("not found")
	case errors.Is(err, domain.ErrAlreadyFollowed):
		return http.StatusConflict, Error("coupon already followed")
	case errors.Is(err, domain.ErrActiveSubscriptionExists):
		return http.StatusConflict, Error("a live subscription already exists")
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, Error("operation not allowed in the current state")
	case errors.Is(err, domain.ErrInsufficientCoins):
		return http.StatusConflict, Error("insufficient coin balance")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, Error("conflict")
	case errors.Is(err, paymentgateway.ErrMissingField):
		return http.StatusBadRequest, Error(err.Error())
	}
	if ge, ok := paymentgateway.IsGatewayError(err); ok {
		return http.StatusBadGateway, Error("payment provider error: " + string(ge.Body))
	}
	return http.StatusInternalServerError, Error("internal error")
}

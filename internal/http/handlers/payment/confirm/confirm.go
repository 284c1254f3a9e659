// Package confirm implements the generic operator confirmation handler.
// One handler covers every supported country/method pair; the gateway's
// operator table supplies the endpoint and wire field names.
package confirm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
)

// Handler serves operator payment confirmations.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the payment logic the handler delegates to.
type Service interface {
	ConfirmOperator(ctx context.Context, userUID, country, method string,
		req paymentgateway.ConfirmPaymentRequest) (models.TransactionStatus, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Confirm a mobile-money payment
// @Description Pushes the operator-specific confirmation for an open invoice. Country and method select the operator.
// @Tags Payments
// @Accept json
// @Produce json
// @Param country path string true "Country slug (e.g. senegal)"
// @Param method path string true "Payment method slug (e.g. orange-money)"
// @Param request body models.DummyConfirmPayment true "Customer and invoice data"
// @Success 200 {object} response.Response "Payment status after confirmation"
// @Failure 400 {object} response.ErrorResponse "Missing operator field"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 404 {object} response.ErrorResponse "Unsupported operator or unknown invoice"
// @Failure 502 {object} response.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /payments/confirm/{country}/{method} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	country := chi.URLParam(r, "country")
	method := chi.URLParam(r, "method")

	var req models.DummyConfirmPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status, err := h.service.ConfirmOperator(r.Context(), userUID, country, method,
		paymentgateway.ConfirmPaymentRequest{
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			PhoneNumber:   req.PhoneNumber,
			PaymentToken:  req.PaymentToken,
			OTP:           req.OTP,
			Address:       req.Address,
			Password:      req.Password,
		})
	if err != nil {
		log.Error("failed to confirm payment", sl.Err(err))
		httpStatus, resp := response.StatusForError(err)
		w.WriteHeader(httpStatus)
		render.JSON(w, r, resp)
		return
	}

	log.Info("payment confirmation processed",
		slog.String("country", country),
		slog.String("method", method),
		slog.String("status", string(status)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_status": status,
	}))
}

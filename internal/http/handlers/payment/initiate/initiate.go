// Package initiate implements the handler that opens a mobile-money
// checkout invoice for a pending subscription.
package initiate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
	"github.com/kdiomande/pronostic-platform/internal/services/payment"
)

// Handler serves payment initiation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the payment logic the handler delegates to.
type Service interface {
	Initiate(ctx context.Context, userUID string, subscriptionID int, req models.DummyInitiatePayment) (*payment.Initiation, error)
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
// @Summary Open a checkout invoice
// @Description Opens a mobile-money invoice for a pending subscription and returns its token and hosted payment URL.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path int true "Subscription id"
// @Param request body models.DummyInitiatePayment true "Payment method"
// @Success 200 {object} response.Response "Invoice token and checkout URL"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 403 {object} response.ErrorResponse "Not the owner"
// @Failure 409 {object} response.ErrorResponse "Subscription is not pending"
// @Failure 502 {object} response.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /subscriptions/{id}/initiate-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.initiate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid subscription id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	var req models.DummyInitiatePayment
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

	initiation, err := h.service.Initiate(r.Context(), userUID, id, req)
	if err != nil {
		log.Error("failed to initiate payment", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("payment initiated", slog.Int("subscription_id", id))
	render.JSON(w, r, response.OKWithData(initiation))
}

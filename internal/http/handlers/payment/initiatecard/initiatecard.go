// Package initiatecard implements the handler that opens a hosted
// card-payment link for a pending subscription.
package initiatecard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/services/payment"
)

// Handler serves card-payment initiation requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the payment logic the handler delegates to.
type Service interface {
	InitiateCard(ctx context.Context, userUID string, subscriptionID int) (*payment.Initiation, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Open a card payment link
// @Description Creates a customer and a hosted payment link with the card provider.
// @Tags Payments
// @Produce json
// @Param id path int true "Subscription id"
// @Success 200 {object} response.Response "Payment link"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 409 {object} response.ErrorResponse "Subscription is not pending"
// @Failure 502 {object} response.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /subscriptions/{id}/initiate-card-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.initiatecard"
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	initiation, err := h.service.InitiateCard(r.Context(), userUID, id)
	if err != nil {
		log.Error("failed to initiate card payment", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("card payment initiated", slog.Int("subscription_id", id))
	render.JSON(w, r, response.OKWithData(initiation))
}

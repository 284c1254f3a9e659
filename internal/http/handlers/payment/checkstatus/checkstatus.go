// Package checkstatus implements the handler that polls the provider
// for the latest checkout verdict.
package checkstatus

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
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves payment status polls.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the payment logic the handler delegates to.
type Service interface {
	CheckStatus(ctx context.Context, userUID string, subscriptionID int) (models.TransactionStatus, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Poll the payment status
// @Description Asks the provider for the latest verdict and reconciles it. Safe to call repeatedly.
// @Tags Payments
// @Produce json
// @Param id path int true "Subscription id"
// @Success 200 {object} response.Response "Current payment status"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 409 {object} response.ErrorResponse "No payment attempt yet"
// @Failure 502 {object} response.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /subscriptions/{id}/check-status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkstatus"
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

	status, err := h.service.CheckStatus(r.Context(), userUID, id)
	if err != nil {
		log.Error("failed to check payment status", sl.Err(err))
		httpStatus, resp := response.StatusForError(err)
		w.WriteHeader(httpStatus)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_status": status,
	}))
}

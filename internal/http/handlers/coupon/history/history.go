// Package history implements the handler that returns the caller's
// followed coupons.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves coupon history requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the coupon logic the handler delegates to.
type Service interface {
	History(ctx context.Context, userUID string) ([]*models.CouponHistoryEntry, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List the caller's followed coupons
// @Tags Coupons
// @Produce json
// @Success 200 {object} response.Response{data=[]models.CouponHistoryEntry}
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /coupons/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.coupon.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	entries, err := h.service.History(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list coupon history", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(entries))
}

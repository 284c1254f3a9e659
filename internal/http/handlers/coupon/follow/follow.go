// Package follow implements the handler that stakes coins on a coupon.
package follow

import (
	"context"
	"errors"
	"io"
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
)

// Handler serves coupon follow requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the coupon logic the handler delegates to.
type Service interface {
	Follow(ctx context.Context, userUID string, couponID int, req models.DummyFollow) error
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
// @Summary Follow a coupon with a coin stake
// @Description Debits the stake from the caller's coin balance. A coupon can be followed once and only while unsettled.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param id path int true "Coupon id"
// @Param input body models.DummyFollow true "Stake"
// @Success 201 {object} response.Response "Followed"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 403 {object} response.ErrorResponse "Tier too low"
// @Failure 404 {object} response.ErrorResponse "Unknown coupon"
// @Failure 409 {object} response.ErrorResponse "Already followed, settled, or insufficient coins"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Security BearerAuth
// @Router /coupons/{id}/follow [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.coupon.follow"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid coupon id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid coupon id"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyFollow
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("empty request"))
			return
		}
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	if err := h.service.Follow(r.Context(), userUID, id, req); err != nil {
		log.Error("failed to follow coupon", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("coupon followed", slog.Int("coupon_id", id), slog.Int("stake", req.Stake))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OK())
}

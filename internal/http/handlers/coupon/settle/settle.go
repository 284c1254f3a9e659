// Package settle implements the staff-only handler that records coupon
// outcomes and pays out followers.
package settle

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

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves coupon settlement requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the coupon logic the handler delegates to.
type Service interface {
	Settle(ctx context.Context, couponID int, req models.DummySettle) error
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
// @Summary Settle a coupon
// @Description Records per-selection outcomes, resolves follower stakes and updates their stats. A coupon settles once.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param id path int true "Coupon id"
// @Param input body models.DummySettle true "Outcome per selection id"
// @Success 200 {object} response.Response "Settled"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 403 {object} response.ErrorResponse "Staff only"
// @Failure 404 {object} response.ErrorResponse "Unknown coupon"
// @Failure 409 {object} response.ErrorResponse "Already settled"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Security BearerAuth
// @Router /coupons/{id}/settle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.coupon.settle"
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

	var req models.DummySettle
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

	if err := h.service.Settle(r.Context(), id, req); err != nil {
		log.Error("failed to settle coupon", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("coupon settled", slog.Int("coupon_id", id))
	render.JSON(w, r, response.OK())
}

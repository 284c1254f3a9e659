// Package list implements the handler that returns the coupons visible
// to the caller's subscription tier.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves coupon listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the coupon logic the handler delegates to.
type Service interface {
	List(ctx context.Context, userUID string, filter models.CouponFilter) ([]*models.DailyCoupon, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List coupons visible to the caller
// @Description Coupons requiring a higher tier than the caller's active subscription are omitted.
// @Tags Coupons
// @Produce json
// @Param date query string false "Filter by coupon date (YYYY-MM-DD)"
// @Param plan_type query string false "Filter by required plan tier" Enums(basic, premium, vip)
// @Param risk_level query string false "Filter by risk level" Enums(low, medium, high)
// @Success 200 {object} response.Response{data=[]models.DailyCoupon}
// @Failure 400 {object} response.ErrorResponse "Bad filter"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /coupons [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.coupon.list"
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

	var filter models.CouponFilter
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			log.Error("invalid date filter", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid date, expected YYYY-MM-DD"))
			return
		}
		filter.Date = &day
	}
	if raw := r.URL.Query().Get("plan_type"); raw != "" {
		tier := models.PlanTier(raw)
		if tier.Rank() < 0 {
			log.Error("invalid plan type filter", slog.String("plan_type", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid plan type"))
			return
		}
		filter.Tier = &tier
	}
	if raw := r.URL.Query().Get("risk_level"); raw != "" {
		level := models.RiskLevel(raw)
		if level != models.RiskLow && level != models.RiskMedium && level != models.RiskHigh {
			log.Error("invalid risk level filter", slog.String("risk_level", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid risk level"))
			return
		}
		filter.RiskLevel = &level
	}

	coupons, err := h.service.List(r.Context(), userUID, filter)
	if err != nil {
		log.Error("failed to list coupons", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("coupons listed", slog.Int("count", len(coupons)))
	render.JSON(w, r, response.OKWithData(coupons))
}

// Package create implements the HTTP handler that opens a pending
// subscription on a plan.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves subscription creation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the subscription logic the handler delegates to.
type Service interface {
	Subscribe(ctx context.Context, userUID string, req models.DummySubscribe) (*models.UserSubscription, error)
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
// @Summary Subscribe to a plan
// @Description Creates a pending subscription; payment is initiated separately.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body models.DummySubscribe true "Plan choice"
// @Success 201 {object} response.Response "Pending subscription"
// @Failure 400 {object} response.ErrorResponse "Unknown plan or malformed JSON"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Failure 409 {object} response.ErrorResponse "A live subscription already exists"
// @Failure 422 {object} response.ErrorResponse "Validation failure"
// @Security BearerAuth
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscribe
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

	sub, err := h.service.Subscribe(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription created", slog.Int("id", sub.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sub))
}

// Package refresh implements the HTTP handler that rotates token pairs.
package refresh

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves token refresh requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the auth logic the handler delegates to.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
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
// @Summary Refresh the token pair
// @Description Exchanges a valid refresh token for a new access/refresh pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.DummyRefresh true "Refresh token"
// @Success 200 {object} response.Response "New token pair"
// @Failure 400 {object} response.ErrorResponse "Malformed JSON"
// @Failure 401 {object} response.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRefresh
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

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		log.Error("refresh failed", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("token pair refreshed")
	render.JSON(w, r, response.OKWithData(pair))
}

// Package login implements the HTTP handler for password authentication.
package login

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

// Handler serves login requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the auth logic the handler delegates to.
type Service interface {
	Login(ctx context.Context, email, rawPassword string) (*models.TokenPair, error)
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
// @Summary Authenticate with email and password
// @Description Returns an access and refresh token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.DummyLogin true "Credentials"
// @Success 200 {object} response.Response "Token pair"
// @Failure 400 {object} response.ErrorResponse "Malformed JSON"
// @Failure 401 {object} response.ErrorResponse "Bad credentials or inactive account"
// @Failure 422 {object} response.ErrorResponse "Validation failure"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyLogin
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

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("user logged in")
	render.JSON(w, r, response.OKWithData(pair))
}

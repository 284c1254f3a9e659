// Package verify implements the HTTP handler that consumes email
// verification tokens.
package verify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
)

// Handler serves email verification requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the auth logic the handler delegates to.
type Service interface {
	VerifyEmail(ctx context.Context, token string) error
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Verify an email address
// @Description Consumes the single-use verification token and activates the account.
// @Tags Auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} response.Response "Account activated"
// @Failure 401 {object} response.ErrorResponse "Unknown or already used token"
// @Router /auth/verify-email [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		log.Error("missing verification token")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing token"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		log.Error("failed to verify email", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("email verified")
	render.JSON(w, r, response.OK())
}

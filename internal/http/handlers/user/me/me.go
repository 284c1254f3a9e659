// Package me implements the handler that returns the caller's profile
// and betting statistics.
package me

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

// Handler serves profile requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the auth logic the handler delegates to.
type Service interface {
	Profile(ctx context.Context, userUID string) (*models.User, *models.UserStats, error)
}

// Profile is the account view returned to the caller. Credentials and
// the verification token never leave the server.
type Profile struct {
	UID         string            `json:"uid"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	IsStaff     bool              `json:"is_staff"`
	CoinBalance int               `json:"coin_balance"`
	CreatedAt   time.Time         `json:"created_at"`
	Stats       *models.UserStats `json:"stats,omitempty"`
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get the caller's profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Response{data=Profile}
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"
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

	user, stats, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(Profile{
		UID:         user.UID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsStaff:     user.IsStaff,
		CoinBalance: user.CoinBalance,
		CreatedAt:   user.CreatedAt,
		Stats:       stats,
	}))
}

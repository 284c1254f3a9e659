// Package list implements the handler that returns partner bookmakers.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Handler serves bookmaker listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the coupon logic the handler delegates to.
type Service interface {
	Bookmakers(ctx context.Context) ([]*models.Bookmaker, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List partner bookmakers
// @Tags Bookmakers
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Bookmaker}
// @Router /bookmakers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bookmaker.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	bookmakers, err := h.service.Bookmakers(r.Context())
	if err != nil {
		log.Error("failed to list bookmakers", sl.Err(err))
		status, resp := response.StatusForError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(bookmakers))
}

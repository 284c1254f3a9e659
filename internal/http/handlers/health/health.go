// Package health implements the readiness probe.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/storage/repository"
)

// Handler answers readiness checks.
type Handler struct {
	log *slog.Logger
	db  *repository.Storage
}

// New creates a Handler.
func New(log *slog.Logger, db *repository.Storage) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

// ServeHTTP godoc
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response "Ready"
// @Failure 503 {object} response.ErrorResponse "Database not ready"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := repository.CheckDatabaseReady(h.db); err != nil {
		h.log.Error("database not ready", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database not ready"))
		return
	}
	render.JSON(w, r, response.OK())
}

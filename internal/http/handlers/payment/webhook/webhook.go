// Package webhook implements the provider callback endpoint. Deliveries
// are authenticated with an HMAC-SHA256 signature over the raw body.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/http/response"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/metrics"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Paydunya-Signature"

// Payload is the provider callback body.
type Payload struct {
	Status  string `json:"status"`
	Invoice struct {
		Token         string `json:"token"`
		Status        string `json:"status"`
		TransactionID string `json:"transaction_id"`
	} `json:"invoice"`
	CustomData map[string]string `json:"custom_data"`
}

// Handler serves provider callbacks.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  []byte
}

// Service is the payment logic the handler delegates to.
type Service interface {
	HandleWebhook(ctx context.Context, invoiceToken, providerStatus, externalTransactionID string, raw []byte) error
}

// New creates a Handler verifying signatures against secret.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  []byte(secret),
	}
}

// ServeHTTP godoc
// @Summary Provider payment callback
// @Description Reconciles a signed provider verdict. Unknown invoice tokens are acknowledged so the provider stops retrying.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Paydunya-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success 200 {object} response.Response "Acknowledged"
// @Failure 401 {object} response.ErrorResponse "Bad signature"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.validSignature(body, r.Header.Get(SignatureHeader)) {
		log.Error("webhook signature mismatch")
		metrics.WebhookRejected.Inc()
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to decode payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	status := payload.Status
	if status == "" {
		status = payload.Invoice.Status
	}

	err = h.service.HandleWebhook(r.Context(), payload.Invoice.Token, status,
		payload.Invoice.TransactionID, body)
	if err != nil {
		// The provider retries on non-2xx. An unknown token will never
		// become known, so acknowledge it; everything else is worth a
		// retry.
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("webhook for unknown invoice token",
				slog.String("token", payload.Invoice.Token))
			render.JSON(w, r, response.OK())
			return
		}
		log.Error("failed to process webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("webhook processed", slog.String("token", payload.Invoice.Token))
	render.JSON(w, r, response.OK())
}

func (h *Handler) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

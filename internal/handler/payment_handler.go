package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"scentrale/internal/middleware"
	"scentrale/internal/model"
	"scentrale/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// webhookResponse is the acknowledgement shape the gateway expects.
type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateCheckout handles POST /api/payments/create-checkout requests.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
		return
	}

	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", h.logger)
		return
	}

	session, err := h.service.CreateCheckoutSession(r.Context(), orderID, identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Webhook handles POST /api/payments/webhook requests. The gateway is not an
// authenticated client; the request authenticates itself via its signature.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req model.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.service.HandleWebhook(r.Context(), &req); err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			writeJSON(w, statusForCode(domainErr.Code), webhookResponse{Success: false, Message: domainErr.Message})
			return
		}
		h.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("webhook processing failed")
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Success: false, Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "Webhook processed"})
}

// Status handles GET /api/payments/status/{orderId} requests.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", h.logger)
		return
	}

	status, err := h.service.GetStatus(r.Context(), orderID, identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"scentrale/internal/model"

	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeDomainError translates a service error to an HTTP response. Unknown
// errors collapse to a generic 500 so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
}

// statusForCode maps domain error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidJSON, model.ErrCodeEmptyCart, model.ErrCodeInvalidQuantity:
		return http.StatusBadRequest
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeAlreadyPaid, model.ErrCodeInvalidState, model.ErrCodeOutOfStock:
		return http.StatusConflict
	case model.ErrCodeBadSignature, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

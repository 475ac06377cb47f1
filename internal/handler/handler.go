package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const maxJSONBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and
// message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := middleware.RequestIDFrom(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).
		Str("code", code).
		Int("status", status).
		Str("request_id", requestID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message, CorrelationID: requestID})
}

// writeServiceError maps err onto a status code and writes it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	code := model.CodeOf(err)
	status := statusFor(code)

	message := err.Error()
	var de *model.DomainError
	if status == http.StatusInternalServerError && !errors.As(err, &de) {
		message = "internal server error"
	}
	writeError(w, r, status, code, message, logger)
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeOrderNotFound, model.ErrCodeItemNotFound, model.ErrCodeNoShops:
		return http.StatusNotFound
	case model.ErrCodeCrossShopItem, model.ErrCodeInvalidState, model.ErrCodeSubmitInFlight:
		return http.StatusConflict
	case model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeUpload, model.ErrCodeSubmission, model.ErrCodeFetch, model.ErrCodeUpdate, model.ErrCodeChannel:
		return http.StatusBadGateway
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger zerolog.Logger) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// Health handles GET /health requests.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

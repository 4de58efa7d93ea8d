package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields formconfigs.FieldErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRawJSON writes a provider document through without re-encoding it
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError logs err and answers with the status it maps to and message
func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")

	var invalid *formconfigs.ValidationError
	if errors.As(err, &invalid) {
		writeJSON(w, status, errorResponse{Error: message, Fields: invalid.Fields})
		return
	}
	writeJSONError(w, status, message)
}

// statusFor maps the error taxonomy onto HTTP statuses. Provider errors keep
// the provider's status.
func statusFor(err error) int {
	var upstream *apperrors.UpstreamError
	switch {
	case apperrors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return upstream.StatusCode
	case apperrors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout
	case apperrors.Is(err, apperrors.ErrNotAuthenticated),
		apperrors.Is(err, apperrors.ErrExpiredAndRefreshFailed):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// messageFor describes schema errors to the builder UI. Internal failures
// get fallback so no detail leaks.
func messageFor(err error, fallback string) string {
	var upstream *apperrors.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return upstream.Message()
	case apperrors.Is(err, apperrors.ErrTimeout):
		return "Airtable did not respond in time."
	case apperrors.Is(err, apperrors.ErrNotAuthenticated):
		return "Airtable account is not connected."
	case apperrors.Is(err, apperrors.ErrExpiredAndRefreshFailed):
		return "Airtable session expired, reconnect the account."
	case apperrors.Is(err, apperrors.ErrTableNotFound):
		return "Table not found"
	}
	return fallback
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("wrap: %w", apperrors.ErrValidation), http.StatusBadRequest},
		{"form validation", &formconfigs.ValidationError{Fields: formconfigs.FieldErrors{"Name": "Name is required."}}, http.StatusBadRequest},
		{"upstream keeps status", fmt.Errorf("wrap: %w", &apperrors.UpstreamError{StatusCode: 422}), http.StatusUnprocessableEntity},
		{"timeout", fmt.Errorf("wrap: %w: %w", apperrors.ErrTokenExchangeFailed, apperrors.ErrTimeout), http.StatusGatewayTimeout},
		{"not authenticated", apperrors.ErrNotAuthenticated, http.StatusUnauthorized},
		{"refresh failed", apperrors.ErrExpiredAndRefreshFailed, http.StatusUnauthorized},
		{"table not found", apperrors.ErrTableNotFound, http.StatusNotFound},
		{"persistence", apperrors.ErrPersistence, http.StatusInternalServerError},
		{"cancelled", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestMessageFor(t *testing.T) {
	upstream := &apperrors.UpstreamError{StatusCode: 403, Body: []byte(`{"error":{"type":"INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"}}`)}
	require.Equal(t, "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND", messageFor(upstream, "fallback"))
	require.Equal(t, "Table not found", messageFor(apperrors.ErrTableNotFound, "fallback"))
	require.Equal(t, "fallback", messageFor(apperrors.ErrPersistence, "fallback"))
}

func TestValidationDetail(t *testing.T) {
	err := fmt.Errorf("%w: userId is required; baseId is required", apperrors.ErrValidation)
	require.Equal(t, "userId is required; baseId is required", validationDetail(err))
	require.Equal(t, "Invalid request.", validationDetail(apperrors.ErrPersistence))
}

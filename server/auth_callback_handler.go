package server

import (
	"errors"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/oauthclient"
	"github.com/rs/zerolog"
)

// Error codes the frontend understands on its landing page
const (
	callbackErrorInvalidState  = "invalid_state"
	callbackErrorTokenExchange = "token_exchange_failed"
)

// BeginAuthHandler redirects the browser to Airtable's consent page
func (s *Server) BeginAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeJSONError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		redirect, err := s.services.Auth.BeginAuthorization(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, "Failed to start authorization.")
			return
		}
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// AuthCallbackHandler finishes the flow and always answers with a redirect
// to the frontend, carrying an error code on failure.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		record, err := s.services.Auth.CompleteAuthorization(r.Context(), oauthclient.Callback{
			State:            r.FormValue("state"),
			Code:             r.FormValue("code"),
			Error:            r.FormValue("error"),
			ErrorDescription: r.FormValue("error_description"),
		})
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("authorization callback failed")
			http.Redirect(w, r, s.frontendURL(frontendHomePath, "error", callbackErrorCode(err)), http.StatusFound)
			return
		}

		http.Redirect(w, r, s.frontendURL(frontendBuilderPath, "user_id", record.UserID), http.StatusFound)
	}
}

func callbackErrorCode(err error) string {
	var denied *apperrors.ProviderDeniedError
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidState):
		return callbackErrorInvalidState
	case errors.As(err, &denied):
		if denied.Description != "" {
			return denied.Description
		}
		return denied.Code
	}
	return callbackErrorTokenExchange
}

func (s *Server) frontendURL(path, key, value string) string {
	return s.config.GetFrontendURL() + path + "?" + url.Values{key: {value}}.Encode()
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
)

const maxBodyBytes = 1 << 20

func (s *Server) ListBasesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bases, err := s.services.Schema.ListBases(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, r, err, messageFor(err, "Failed to fetch bases."))
			return
		}
		writeRawJSON(w, http.StatusOK, bases)
	}
}

func (s *Server) ListTablesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables, err := s.services.Schema.ListTables(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "baseId"))
		if err != nil {
			writeError(w, r, err, messageFor(err, "Failed to fetch tables."))
			return
		}
		writeRawJSON(w, http.StatusOK, tables)
	}
}

// TableFieldsHandler returns one table; ?supported=true drops the fields
// the form builder cannot render and ?defaults=true answers with the
// starting field specs for a new form instead
func (s *Server) TableFieldsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, baseID, tableID := chi.URLParam(r, "userId"), chi.URLParam(r, "baseId"), chi.URLParam(r, "tableId")

		if defaults, _ := strconv.ParseBool(r.URL.Query().Get("defaults")); defaults {
			specs, err := s.services.Schema.TableFieldSpecs(r.Context(), userID, baseID, tableID)
			if err != nil {
				writeError(w, r, err, messageFor(err, "Failed to fetch fields."))
				return
			}
			writeJSON(w, http.StatusOK, specs)
			return
		}

		lookup := s.services.Schema.GetTableFields
		if supported, _ := strconv.ParseBool(r.URL.Query().Get("supported")); supported {
			lookup = s.services.Schema.SupportedTableFields
		}

		table, err := lookup(r.Context(), userID, baseID, tableID)
		if err != nil {
			writeError(w, r, err, messageFor(err, "Failed to fetch fields."))
			return
		}
		writeRawJSON(w, http.StatusOK, table)
	}
}

func (s *Server) SaveFormConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveFormConfigRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, "Invalid request body.")
			return
		}
		if err := s.validateStruct(req); err != nil {
			writeError(w, r, err, validationDetail(err))
			return
		}

		if err := s.services.FormConfigs.Save(r.Context(), req.formConfig()); err != nil {
			if apperrors.Is(err, apperrors.ErrValidation) {
				writeError(w, r, err, "userId, baseId and tableId are required.")
				return
			}
			writeError(w, r, err, "Failed to save configuration.")
			return
		}
		writeJSON(w, http.StatusOK, saveFormConfigResponse{Success: true, Message: "Configuration saved."})
	}
}

func (s *Server) ListFormConfigsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := s.services.FormConfigs.ListByUser(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, r, err, "Failed to retrieve form configurations.")
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) GetFormConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := s.services.FormConfigs.Load(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "baseId"), chi.URLParam(r, "tableId"))
		if apperrors.Is(err, apperrors.ErrNotFound) {
			writeError(w, r, err, "Configuration not found.")
			return
		}
		if err != nil {
			writeError(w, r, err, "Failed to retrieve configuration.")
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

// SubmitHandler is the public endpoint behind every published form. The body
// is the field values object, keyed by Airtable field name.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %w", apperrors.ErrValidation, err), "Invalid request body.")
			return
		}

		submission, err := s.services.Submissions.Submit(r.Context(),
			chi.URLParam(r, "userId"), chi.URLParam(r, "baseId"), chi.URLParam(r, "tableId"), body)
		if err != nil {
			writeError(w, r, err, submitErrorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{Success: true, Record: submission.Record})
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("[Server decodeJSON] %w: %w", apperrors.ErrValidation, err)
	}
	return nil
}

// validationDetail is the text after the "validation error: " prefix
// validateStruct produces
func validationDetail(err error) string {
	if _, detail, ok := strings.Cut(err.Error(), apperrors.ErrValidation.Error()+": "); ok {
		return detail
	}
	return "Invalid request."
}

func submitErrorMessage(err error) string {
	var invalid *formconfigs.ValidationError
	switch {
	case errors.As(err, &invalid):
		return "Please fill in all required fields."
	case apperrors.Is(err, apperrors.ErrValidation):
		return "Submission must be a JSON object of field values."
	case apperrors.Is(err, apperrors.ErrNotFound) && !apperrors.Is(err, apperrors.ErrTableNotFound):
		return "Form not found."
	}
	// Public route: provider details stay in the log
	return "Failed to submit to Airtable."
}

package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ConfigLoader looks up a saved form
type ConfigLoader interface {
	Load(ctx context.Context, userID, baseID, tableID string) (*formconfigs.FormConfig, error)
}

// Submission is the record Airtable created
type Submission struct {
	RecordID string          `json:"id"`
	Record   json.RawMessage `json:"record"`
}

// SubmissionService creates Airtable records from public form answers.
type SubmissionService struct {
	gateway Gateway
	configs ConfigLoader
	metrics *metrics.Metrics
}

// SubmissionOption defines a function type to modify the SubmissionService instance.
type SubmissionOption func(*SubmissionService)

// WithStrictValidation checks answers against the saved form and forwards
// only the visible, answered fields. Without it answers are forwarded as
// received.
func WithStrictValidation(configs ConfigLoader) SubmissionOption {
	return func(s *SubmissionService) {
		s.configs = configs
	}
}

// WithMetrics counts submissions by outcome
func WithMetrics(m *metrics.Metrics) SubmissionOption {
	return func(s *SubmissionService) {
		s.metrics = m
	}
}

func NewSubmissionService(gateway Gateway, options ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{gateway: gateway}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Submit forwards fieldValues, a JSON object keyed by Airtable field name,
// as a new record of the table.
func (s *SubmissionService) Submit(ctx context.Context, userID, baseID, tableID string, fieldValues json.RawMessage) (*Submission, error) {
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Str("base_id", baseID).Str("table_id", tableID).Logger()

	if userID == "" || baseID == "" || tableID == "" {
		return nil, fmt.Errorf("[SubmissionService Submit] userId, baseId and tableId are required: %w", apperrors.ErrValidation)
	}
	if !gjson.ValidBytes(fieldValues) || !gjson.ParseBytes(fieldValues).IsObject() {
		s.metrics.Submission(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("[SubmissionService Submit] body must be a JSON object: %w", apperrors.ErrValidation)
	}

	if s.configs != nil {
		prepared, err := s.prepare(ctx, userID, baseID, tableID, fieldValues)
		if err != nil {
			s.metrics.Submission(metrics.OutcomeInvalid)
			logger.Info().Err(err).Msg("submission rejected")
			return nil, err
		}
		fieldValues = prepared
	}

	record, err := s.gateway.CreateRecord(ctx, userID, baseID, tableID, fieldValues)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeFailure)
		logger.Error().Err(err).Msg("submission failed")
		return nil, fmt.Errorf("[SubmissionService Submit] %w", err)
	}

	s.metrics.Submission(metrics.OutcomeSuccess)
	submission := &Submission{RecordID: gjson.GetBytes(record, "id").String(), Record: record}
	logger.Info().Str("record_id", submission.RecordID).Msg("record created")
	return submission, nil
}

// prepare checks the values against the saved form and returns the payload
// to forward: answers of hidden, unknown or empty fields are dropped.
func (s *SubmissionService) prepare(ctx context.Context, userID, baseID, tableID string, fieldValues json.RawMessage) (json.RawMessage, error) {
	config, err := s.configs.Load(ctx, userID, baseID, tableID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[SubmissionService Submit]")
	}

	// UseNumber keeps numeric answers exactly as sent when re-encoded
	var values map[string]any
	dec := json.NewDecoder(bytes.NewReader(fieldValues))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("[SubmissionService Submit] %w: %w", apperrors.ErrValidation, err)
	}
	if errs := config.Validate(values); len(errs) > 0 {
		return nil, &formconfigs.ValidationError{Fields: errs}
	}

	prepared, err := json.Marshal(config.PrepareSubmission(values))
	if err != nil {
		return nil, fmt.Errorf("[SubmissionService Submit] %w: %w", apperrors.ErrValidation, err)
	}
	return prepared, nil
}

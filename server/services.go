package server

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-airtable-forms/credentials"
	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	"github.com/jrsteele09/go-airtable-forms/forms"
	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/jrsteele09/go-airtable-forms/oauthclient"
	"github.com/prometheus/client_golang/prometheus"
)

// Authorizer runs the Airtable OAuth flow
type Authorizer interface {
	BeginAuthorization(ctx context.Context, userID string) (string, error)
	CompleteAuthorization(ctx context.Context, cb oauthclient.Callback) (*credentials.TokenRecord, error)
}

// Schema reads bases, tables and fields from Airtable
type Schema interface {
	ListBases(ctx context.Context, userID string) (json.RawMessage, error)
	ListTables(ctx context.Context, userID, baseID string) (json.RawMessage, error)
	GetTableFields(ctx context.Context, userID, baseID, tableID string) (json.RawMessage, error)
	SupportedTableFields(ctx context.Context, userID, baseID, tableID string) (json.RawMessage, error)
	TableFieldSpecs(ctx context.Context, userID, baseID, tableID string) ([]formconfigs.FieldSpec, error)
}

// FormConfigs stores the forms users build
type FormConfigs interface {
	Save(ctx context.Context, config *formconfigs.FormConfig) error
	Load(ctx context.Context, userID, baseID, tableID string) (*formconfigs.FormConfig, error)
	ListByUser(ctx context.Context, userID string) ([]formconfigs.Summary, error)
}

// Submitter turns public form answers into Airtable records
type Submitter interface {
	Submit(ctx context.Context, userID, baseID, tableID string, fieldValues json.RawMessage) (*forms.Submission, error)
}

// Services are the components the HTTP handlers call into
type Services struct {
	Auth        Authorizer
	Schema      Schema
	FormConfigs FormConfigs
	Submissions Submitter
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
}

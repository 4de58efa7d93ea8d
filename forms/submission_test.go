package forms_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-airtable-forms/airtable"
	"github.com/jrsteele09/go-airtable-forms/credentials"
	credentialsrepofake "github.com/jrsteele09/go-airtable-forms/credentials/repofake"
	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	formconfigsrepofake "github.com/jrsteele09/go-airtable-forms/formconfigs/repofake"
	"github.com/jrsteele09/go-airtable-forms/forms"
	"github.com/jrsteele09/go-airtable-forms/internal/airtabletest"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/oauthclient"
	"github.com/jrsteele09/go-airtable-forms/oauthclient/flowstate"
	"github.com/stretchr/testify/require"
)

func TestSubmissionService_ForwardsValuesVerbatim(t *testing.T) {
	gateway := newStubGateway()
	submissions := forms.NewSubmissionService(gateway)

	values := json.RawMessage(`{"Name":"Alice","Hidden":"kept","Tags":["a","b"]}`)
	submission, err := submissions.Submit(context.Background(), "u1", "appA", "tblLeads", values)
	require.NoError(t, err)
	require.Equal(t, "recNew", submission.RecordID)
	require.Len(t, gateway.created, 1)
	require.JSONEq(t, string(values), string(gateway.created[0]))
}

func TestSubmissionService_RejectsNonObject(t *testing.T) {
	gateway := newStubGateway()
	submissions := forms.NewSubmissionService(gateway)

	for _, body := range []string{`[]`, `"Alice"`, `{"Name":`, ``} {
		_, err := submissions.Submit(context.Background(), "u1", "appA", "tblLeads", json.RawMessage(body))
		require.ErrorIs(t, err, apperrors.ErrValidation, body)
	}
	require.Empty(t, gateway.created)
}

func TestSubmissionService_StrictValidation(t *testing.T) {
	ctx := context.Background()
	configs := formconfigs.NewStore(formconfigsrepofake.NewFakeFormConfigsRepo())
	require.NoError(t, configs.Save(ctx, &formconfigs.FormConfig{
		UserID: "u1", BaseID: "appA", TableID: "tblLeads",
		Fields: []formconfigs.FieldSpec{
			{AirtableFieldID: "fldName", Name: "Name", Label: "Full name", Type: formconfigs.FieldTypeSingleLineText, IsRequired: true},
		},
	}))

	gateway := newStubGateway()
	submissions := forms.NewSubmissionService(gateway, forms.WithStrictValidation(configs))

	_, err := submissions.Submit(ctx, "u1", "appA", "tblLeads", json.RawMessage(`{"Name":""}`))
	var invalid *formconfigs.ValidationError
	require.ErrorAs(t, err, &invalid)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, "Full name is required.", invalid.Fields["Name"])
	require.Empty(t, gateway.created)

	_, err = submissions.Submit(ctx, "u1", "appA", "tblLeads", json.RawMessage(`{"Name":"Alice"}`))
	require.NoError(t, err)

	_, err = submissions.Submit(ctx, "u1", "appA", "tblUnsaved", json.RawMessage(`{"Name":"Alice"}`))
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmissionService_StrictForwardsVisibleAnswers(t *testing.T) {
	ctx := context.Background()
	configs := formconfigs.NewStore(formconfigsrepofake.NewFakeFormConfigsRepo())
	require.NoError(t, configs.Save(ctx, &formconfigs.FormConfig{
		UserID: "u1", BaseID: "appA", TableID: "tblLeads",
		Fields: []formconfigs.FieldSpec{
			{AirtableFieldID: "fldName", Name: "Name", Type: formconfigs.FieldTypeSingleLineText, IsRequired: true},
			{AirtableFieldID: "fldSub", Name: "Subscribe", Type: formconfigs.FieldTypeSingleSelect},
			{AirtableFieldID: "fldEmail", Name: "Email", Type: formconfigs.FieldTypeSingleLineText,
				Conditional: &formconfigs.Conditional{ShowIfField: "fldSub", EqualsValue: "true"}},
			{AirtableFieldID: "fldAge", Name: "Age", Type: formconfigs.FieldTypeSingleLineText},
			{AirtableFieldID: "fldNotes", Name: "Notes", Type: formconfigs.FieldTypeMultilineText},
		},
	}))

	gateway := newStubGateway()
	submissions := forms.NewSubmissionService(gateway, forms.WithStrictValidation(configs))

	values := json.RawMessage(`{"Name":"Alice","Subscribe":false,"Email":"hidden@example.com","Age":12345678901234567,"Notes":"","Unknown":"x"}`)
	_, err := submissions.Submit(ctx, "u1", "appA", "tblLeads", values)
	require.NoError(t, err)
	require.Len(t, gateway.created, 1)
	require.JSONEq(t, `{"Name":"Alice","Subscribe":false,"Age":12345678901234567}`, string(gateway.created[0]))
}

func TestSubmissionService_UpstreamRejection(t *testing.T) {
	gateway := newStubGateway()
	gateway.err = &apperrors.UpstreamError{StatusCode: 422, Body: []byte(`{"error":{"type":"UNKNOWN_FIELD_NAME","message":"Unknown field name: \"Nope\""}}`)}
	submissions := forms.NewSubmissionService(gateway)

	_, err := submissions.Submit(context.Background(), "u1", "appA", "tblLeads", json.RawMessage(`{"Nope":"x"}`))
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 422, upstream.StatusCode)
}

// Connect, then submit a public form through the real gateway
func TestSubmissionService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	fake := airtabletest.NewServer(t)
	fake.Setenv(t)

	store := credentials.NewStore(credentialsrepofake.NewFakeCredentialsRepo())
	ctrl := oauthclient.NewController(config.Airtable{}, flowstate.NewInMemoryRepo(time.Minute, 0), store)
	gateway := airtable.NewGateway(config.Airtable{}, store, ctrl)
	submissions := forms.NewSubmissionService(gateway)

	redirect, err := ctrl.BeginAuthorization(ctx, "u1")
	require.NoError(t, err)
	state, code := fake.IssueCode(t, redirect)
	_, err = ctrl.CompleteAuthorization(ctx, oauthclient.Callback{State: state, Code: code})
	require.NoError(t, err)

	submission, err := submissions.Submit(ctx, "u1", "baseA", "tblB", json.RawMessage(`{"Name":"Alice"}`))
	require.NoError(t, err)
	require.Equal(t, "rec1", submission.RecordID)

	requests := fake.APIRequests()
	require.Len(t, requests, 1)
	require.Equal(t, "POST", requests[0].Method)
	require.Equal(t, "/v0/baseA/tblB", requests[0].Path)
	require.Equal(t, "Bearer access-1", requests[0].Authorization)
	require.JSONEq(t, `{"fields":{"Name":"Alice"}}`, string(requests[0].Body))
}

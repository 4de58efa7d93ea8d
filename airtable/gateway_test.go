package airtable_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-airtable-forms/airtable"
	"github.com/jrsteele09/go-airtable-forms/credentials"
	credentialsrepofake "github.com/jrsteele09/go-airtable-forms/credentials/repofake"
	"github.com/jrsteele09/go-airtable-forms/internal/airtabletest"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/oauthclient"
	"github.com/jrsteele09/go-airtable-forms/oauthclient/flowstate"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// countingRefresher counts refreshes passed through to the real controller
type countingRefresher struct {
	next  airtable.Refresher
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context, userID string) (*credentials.TokenRecord, error) {
	r.calls.Add(1)
	return r.next.Refresh(ctx, userID)
}

type gatewayFixture struct {
	fake      *airtabletest.Server
	store     *credentials.Store
	ctrl      *oauthclient.Controller
	refresher *countingRefresher
	gateway   *airtable.Gateway
	now       time.Time
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{
		fake: airtabletest.NewServer(t),
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.fake.Setenv(t)
	nowFunc := func() time.Time { return f.now }

	f.store = credentials.NewStore(credentialsrepofake.NewFakeCredentialsRepo(), credentials.WithNowTime(nowFunc))
	f.ctrl = oauthclient.NewController(config.Airtable{}, flowstate.NewInMemoryRepo(time.Minute, 0), f.store, oauthclient.WithNowTime(nowFunc))
	f.refresher = &countingRefresher{next: f.ctrl}
	f.gateway = airtable.NewGateway(config.Airtable{}, f.store, f.refresher, airtable.WithNowTime(nowFunc))
	return f
}

func (f *gatewayFixture) connect(t *testing.T, userID string) {
	t.Helper()
	redirect, err := f.ctrl.BeginAuthorization(context.Background(), userID)
	require.NoError(t, err)
	state, code := f.fake.IssueCode(t, redirect)
	_, err = f.ctrl.CompleteAuthorization(context.Background(), oauthclient.Callback{State: state, Code: code})
	require.NoError(t, err)
}

func TestGateway_NotAuthenticated(t *testing.T) {
	f := newGatewayFixture(t)

	_, err := f.gateway.ListBases(context.Background(), "nobody")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Empty(t, f.fake.APIRequests())
}

func TestGateway_ValidTokenIsSentAsBearer(t *testing.T) {
	f := newGatewayFixture(t)
	f.connect(t, "u1")

	body, err := f.gateway.ListBases(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "appA", gjson.GetBytes(body, "bases.0.id").String())

	requests := f.fake.APIRequests()
	require.Len(t, requests, 1)
	require.Equal(t, "Bearer access-1", requests[0].Authorization)
	require.Empty(t, requests[0].ContentType, "no body, no content type")
	require.Equal(t, int32(0), f.refresher.calls.Load())
}

func TestGateway_ExpiredTokenRefreshesOnce(t *testing.T) {
	f := newGatewayFixture(t)
	f.connect(t, "u1")
	f.now = f.now.Add(time.Hour)

	_, err := f.gateway.ListBases(context.Background(), "u1")
	require.NoError(t, err)

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, 1, f.fake.CountTokenGrants("refresh_token"))
	requests := f.fake.APIRequests()
	require.Len(t, requests, 1)
	require.Equal(t, "Bearer access-2", requests[0].Authorization)

	_, err = f.gateway.ListBases(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, int32(1), f.refresher.calls.Load(), "refreshed token is reused")
}

func TestGateway_ExpiredAndRefreshFailed(t *testing.T) {
	f := newGatewayFixture(t)
	f.connect(t, "u1")
	f.now = f.now.Add(2 * time.Hour)
	f.fake.FailToken(http.StatusBadRequest, `{"error":"invalid_grant"}`)

	_, err := f.gateway.ListBases(context.Background(), "u1")
	require.ErrorIs(t, err, apperrors.ErrExpiredAndRefreshFailed)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.Empty(t, f.fake.APIRequests())
}

func TestGateway_UpstreamError(t *testing.T) {
	f := newGatewayFixture(t)
	f.connect(t, "u1")

	_, err := f.gateway.ListTables(context.Background(), "u1", "app/unknown")
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusNotFound, upstream.StatusCode)
	require.Equal(t, "NOT_FOUND", upstream.Message())

	requests := f.fake.APIRequests()
	require.Equal(t, "/v0/meta/bases/app%2Funknown/tables", requests[0].Path)
}

func TestGateway_CreateRecordWrapsFields(t *testing.T) {
	f := newGatewayFixture(t)
	f.connect(t, "u1")

	record, err := f.gateway.CreateRecord(context.Background(), "u1", "baseA", "tblB", []byte(`{"Name":"Alice"}`))
	require.NoError(t, err)
	require.Equal(t, "rec1", gjson.GetBytes(record, "id").String())
	require.Equal(t, "Alice", gjson.GetBytes(record, "fields.Name").String())

	requests := f.fake.APIRequests()
	require.Len(t, requests, 1)
	require.Equal(t, http.MethodPost, requests[0].Method)
	require.Equal(t, "/v0/baseA/tblB", requests[0].Path)
	require.Equal(t, "application/json", requests[0].ContentType)
	require.JSONEq(t, `{"fields":{"Name":"Alice"}}`, string(requests[0].Body))
}

func TestGateway_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	f := newGatewayFixture(t)
	f.connect(t, "u1")
	t.Setenv("AIRTABLE_API_URL", slow.URL)
	gateway := airtable.NewGateway(config.Airtable{}, f.store, f.refresher,
		airtable.WithNowTime(func() time.Time { return f.now }),
		airtable.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)

	_, err := gateway.ListBases(context.Background(), "u1")
	require.ErrorIs(t, err, apperrors.ErrTimeout)
}

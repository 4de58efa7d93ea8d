package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-airtable-forms/credentials"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"
)

const maxResponseBytes = 10 << 20

// TokenLoader returns the stored tokens of a user
type TokenLoader interface {
	Load(ctx context.Context, userID string) (*credentials.TokenRecord, error)
}

// Refresher exchanges a user's refresh token for a new token set
type Refresher interface {
	Refresh(ctx context.Context, userID string) (*credentials.TokenRecord, error)
}

// Gateway performs authenticated Airtable REST calls on behalf of a user.
type Gateway struct {
	baseURL   string
	tokens    TokenLoader
	refresher Refresher
	client    *http.Client
	metrics   *metrics.Metrics
	nowTime   func() time.Time
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

// WithHTTPClient sets the client used for API calls
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithMetrics records call latency by method and status
func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.nowTime = nowFunc
	}
}

func NewGateway(cfg config.AirtableConfig, tokens TokenLoader, refresher Refresher, options ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:   cfg.GetAirtableAPIURL(),
		tokens:    tokens,
		refresher: refresher,
		client:    &http.Client{Timeout: 15 * time.Second},
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Call sends method path (relative to the API root) with the user's access
// token. An expired token is refreshed once before the call; there are no
// retries. Non-2xx answers come back as *errors.UpstreamError.
func (g *Gateway) Call(ctx context.Context, userID, method, path string, body []byte) ([]byte, error) {
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Str("method", method).Str("path", path).Logger()

	record, err := g.tokens.Load(ctx, userID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("[Gateway Call] user %s: %w", userID, apperrors.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("[Gateway Call] %w", err)
	}

	if record.Expired(g.nowTime()) {
		logger.Debug().Time("expires_at", record.ExpiresAt).Msg("access token expired, refreshing")
		record, err = g.refresher.Refresh(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Msg("refresh before call failed")
			return nil, fmt.Errorf("[Gateway Call] %w: %w", apperrors.ErrExpiredAndRefreshFailed, err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("[Gateway Call] build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+record.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.ObserveUpstream(method, 0, time.Since(start))
		if isTimeout(err) {
			return nil, fmt.Errorf("[Gateway Call] %s %s: %w: %w", method, path, apperrors.ErrTimeout, err)
		}
		return nil, fmt.Errorf("[Gateway Call] %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	g.metrics.ObserveUpstream(method, resp.StatusCode, time.Since(start))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("[Gateway Call] read %s %s: %w: %w", method, path, apperrors.ErrTimeout, err)
		}
		return nil, fmt.Errorf("[Gateway Call] read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := &apperrors.UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
		logger.Warn().Int("status", resp.StatusCode).Str("upstream_error", upstream.Message()).Msg("airtable call failed")
		return nil, fmt.Errorf("[Gateway Call] %w", upstream)
	}
	return respBody, nil
}

// ListBases returns the provider's {"bases":[...]} document
func (g *Gateway) ListBases(ctx context.Context, userID string) (json.RawMessage, error) {
	return g.Call(ctx, userID, http.MethodGet, "/meta/bases", nil)
}

// ListTables returns the provider's {"tables":[...]} document for a base
func (g *Gateway) ListTables(ctx context.Context, userID, baseID string) (json.RawMessage, error) {
	return g.Call(ctx, userID, http.MethodGet, "/meta/bases/"+url.PathEscape(baseID)+"/tables", nil)
}

// CreateRecord posts {"fields": fields} to the table and returns the created record
func (g *Gateway) CreateRecord(ctx context.Context, userID, baseID, tableID string, fields json.RawMessage) (json.RawMessage, error) {
	payload, err := sjson.SetRawBytes([]byte(`{}`), "fields", fields)
	if err != nil {
		return nil, fmt.Errorf("[Gateway CreateRecord] %w: %w", apperrors.ErrValidation, err)
	}
	return g.Call(ctx, userID, http.MethodPost, "/"+url.PathEscape(baseID)+"/"+url.PathEscape(tableID), payload)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

package oauthclient

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-airtable-forms/credentials"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/jrsteele09/go-airtable-forms/oauthclient/flowstate"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	authorizePath = "/oauth2/v1/authorize"
	tokenPath     = "/oauth2/v1/token"

	stateBytes    = 100
	verifierBytes = 96
)

// Callback holds the query parameters Airtable redirects back with
type Callback struct {
	State            string
	Code             string
	Error            string
	ErrorDescription string
}

// Controller runs the authorization code + PKCE flow against Airtable and
// refreshes stored tokens.
type Controller struct {
	oauth   *oauth2.Config
	states  flowstate.Repo
	tokens  *credentials.Store
	client  *http.Client
	metrics *metrics.Metrics
	nowTime func() time.Time
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithHTTPClient sets the client used for the token endpoint
func WithHTTPClient(client *http.Client) ControllerOption {
	return func(c *Controller) {
		c.client = client
	}
}

// WithMetrics records authorization and refresh outcomes
func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

func NewController(cfg config.AirtableConfig, states flowstate.Repo, tokens *credentials.Store, options ...ControllerOption) *Controller {
	// Public PKCE clients send client_id in the body, confidential ones use Basic auth
	authStyle := oauth2.AuthStyleInParams
	if cfg.GetClientSecret() != "" {
		authStyle = oauth2.AuthStyleInHeader
	}

	c := &Controller{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			RedirectURL:  cfg.GetRedirectURI(),
			Scopes:       strings.Fields(cfg.GetScope()),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.GetAirtableURL() + authorizePath,
				TokenURL:  cfg.GetAirtableURL() + tokenPath,
				AuthStyle: authStyle,
			},
		},
		states:  states,
		tokens:  tokens,
		client:  &http.Client{Timeout: 15 * time.Second},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// BeginAuthorization remembers a fresh state/verifier pair for userID and
// returns the Airtable authorize URL to redirect the browser to.
func (c *Controller) BeginAuthorization(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("[Controller BeginAuthorization] user_id is required: %w", apperrors.ErrValidation)
	}

	state, err := randomString(stateBytes)
	if err != nil {
		return "", fmt.Errorf("[Controller BeginAuthorization] state: %w", err)
	}
	verifier, err := randomString(verifierBytes)
	if err != nil {
		return "", fmt.Errorf("[Controller BeginAuthorization] code verifier: %w", err)
	}

	err = c.states.Put(ctx, state, &flowstate.State{
		CodeVerifier: verifier,
		UserID:       userID,
		CreatedAt:    c.nowTime().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("[Controller BeginAuthorization] store state: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("user_id", userID).Msg("authorization started")
	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// CompleteAuthorization consumes the state, exchanges the code for tokens and
// stores them for the user who started the flow.
func (c *Controller) CompleteAuthorization(ctx context.Context, cb Callback) (*credentials.TokenRecord, error) {
	logger := zerolog.Ctx(ctx)

	pending, err := c.states.Take(ctx, cb.State)
	if err != nil {
		c.metrics.Authorization(metrics.OutcomeInvalid)
		logger.Warn().Err(err).Msg("authorization callback with unknown state")
		return nil, fmt.Errorf("[Controller CompleteAuthorization] %w", err)
	}
	withUser := logger.With().Str("user_id", pending.UserID).Logger()
	logger = &withUser

	if cb.Error != "" {
		c.metrics.Authorization(metrics.OutcomeDenied)
		logger.Info().Str("error", cb.Error).Str("error_description", cb.ErrorDescription).Msg("authorization denied by provider")
		return nil, fmt.Errorf("[Controller CompleteAuthorization] %w", &apperrors.ProviderDeniedError{
			Code:        cb.Error,
			Description: cb.ErrorDescription,
		})
	}

	if cb.Code == "" {
		c.metrics.Authorization(metrics.OutcomeFailure)
		return nil, fmt.Errorf("[Controller CompleteAuthorization] missing code: %w", apperrors.ErrTokenExchangeFailed)
	}

	tok, err := c.oauth.Exchange(c.clientContext(ctx), cb.Code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		c.metrics.Authorization(metrics.OutcomeFailure)
		logger.Error().Err(providerError(err)).Msg("token exchange failed")
		return nil, classify("[Controller CompleteAuthorization]", apperrors.ErrTokenExchangeFailed, err)
	}

	record, err := c.tokens.Save(ctx, pending.UserID, c.tokenData(tok))
	if err != nil {
		c.metrics.Authorization(metrics.OutcomeFailure)
		logger.Error().Err(err).Msg("storing tokens failed")
		return nil, fmt.Errorf("[Controller CompleteAuthorization] %w: %w", apperrors.ErrTokenExchangeFailed, err)
	}

	c.metrics.Authorization(metrics.OutcomeSuccess)
	logger.Info().Object("token", record).Msg("airtable account connected")
	return record, nil
}

// Refresh trades the stored refresh token for a new token set. Concurrent
// refreshes for one user are not serialized; the last one to save wins.
func (c *Controller) Refresh(ctx context.Context, userID string) (*credentials.TokenRecord, error) {
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	current, err := c.tokens.Load(ctx, userID)
	if apperrors.Is(err, apperrors.ErrNotFound) || (err == nil && !current.CanRefresh()) {
		return nil, fmt.Errorf("[Controller Refresh] user %s: %w", userID, apperrors.ErrNoRefreshToken)
	}
	if err != nil {
		return nil, fmt.Errorf("[Controller Refresh] %w", err)
	}

	tok, err := c.oauth.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		c.metrics.TokenRefresh(metrics.OutcomeFailure)
		logger.Error().Err(providerError(err)).Msg("token refresh failed")
		return nil, classify("[Controller Refresh]", apperrors.ErrRefreshFailed, err)
	}

	record, err := c.tokens.Save(ctx, userID, c.tokenData(tok))
	if err != nil {
		c.metrics.TokenRefresh(metrics.OutcomeFailure)
		return nil, fmt.Errorf("[Controller Refresh] %w: %w", apperrors.ErrRefreshFailed, err)
	}

	c.metrics.TokenRefresh(metrics.OutcomeSuccess)
	logger.Debug().Object("token", record).Msg("access token refreshed")
	return record, nil
}

func (c *Controller) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.client)
}

func (c *Controller) tokenData(tok *oauth2.Token) credentials.TokenData {
	data := credentials.TokenData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    c.expiresIn(tok),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		data.Scope = scope
	}
	return data
}

// expiresIn prefers the lifetime the provider sent over the parsed Expiry
func (c *Controller) expiresIn(tok *oauth2.Token) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return int64(tok.Expiry.Sub(c.nowTime()).Round(time.Second) / time.Second)
	}
	return 0
}

// classify wraps cause with the operation's sentinel, adding ErrTimeout when
// the provider did not answer in time
func classify(prefix string, sentinel, cause error) error {
	if isTimeout(cause) {
		return fmt.Errorf("%s %w: %w: %w", prefix, sentinel, apperrors.ErrTimeout, cause)
	}
	return fmt.Errorf("%s %w: %w", prefix, sentinel, providerError(cause))
}

// providerError keeps the provider's error code and description and drops
// the raw response body
func providerError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.ErrorCode != "" {
			return fmt.Errorf("provider responded %d: %s %s", rErr.Response.StatusCode, rErr.ErrorCode, rErr.ErrorDescription)
		}
		return fmt.Errorf("provider responded %d", rErr.Response.StatusCode)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// randomString returns n random bytes encoded as unpadded base64url
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

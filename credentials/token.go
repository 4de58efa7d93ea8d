package credentials

import (
	"time"

	"github.com/rs/zerolog"
)

// TokenData is the token endpoint payload as issued by Airtable.
type TokenData struct {
	// AccessToken is sent as "Authorization: Bearer <access_token>" on API calls
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged (grant_type=refresh_token) for a new access token.
	// Airtable rotates it on every refresh.
	RefreshToken string `json:"refresh_token"`

	TokenType string `json:"token_type"`

	// Scope is the space separated list of granted scopes
	Scope string `json:"scope"`

	// ExpiresIn is the access token lifetime in seconds relative to issuance
	ExpiresIn int64 `json:"expires_in"`
}

// TokenRecord is the single stored credential of a user. It is replaced as a
// whole on re-authorization and on every refresh.
type TokenRecord struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the access token must be refreshed before use.
// ExpiresAt is the only expiry oracle.
func (r *TokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// CanRefresh reports whether a refresh token is on file
func (r *TokenRecord) CanRefresh() bool {
	return r != nil && r.RefreshToken != ""
}

// MarshalZerologObject logs the record without its secrets
func (r *TokenRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("user_id", r.UserID).
		Str("scope", r.Scope).
		Time("issued_at", r.IssuedAt).
		Time("expires_at", r.ExpiresAt)
}

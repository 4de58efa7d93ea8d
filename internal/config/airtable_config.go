package config

import (
	"strings"
)

const (
	clientIDVar       = "CLIENT_ID"
	clientSecretVar   = "CLIENT_SECRET"
	redirectURIVar    = "REDIRECT_URI"
	scopeVar          = "SCOPE"
	airtableURLVar    = "AIRTABLE_URL"
	airtableAPIURLVar = "AIRTABLE_API_URL"
)

// Scopes needed to list bases/tables and create records
const defaultScope = "data.records:read data.records:write schema.bases:read"

type AirtableConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScope() string
	GetAirtableURL() string
	GetAirtableAPIURL() string
}

type Airtable struct{}

var _ AirtableConfig = Airtable{}

func (Airtable) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

// GetClientSecret is optional, Airtable integrations registered as public
// clients authenticate with PKCE alone.
func (Airtable) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

func (Airtable) GetRedirectURI() string {
	return GetEnv(redirectURIVar, "")
}

func (Airtable) GetScope() string {
	return GetEnv(scopeVar, defaultScope)
}

// GetAirtableURL is the root of the OAuth endpoints (/oauth2/v1/authorize, /oauth2/v1/token)
func (Airtable) GetAirtableURL() string {
	return strings.TrimSuffix(GetEnv(airtableURLVar, "https://airtable.com"), "/")
}

// GetAirtableAPIURL is the REST API root every gateway path is appended to
func (Airtable) GetAirtableAPIURL() string {
	return strings.TrimSuffix(GetEnv(airtableAPIURLVar, "https://api.airtable.com/v0"), "/")
}

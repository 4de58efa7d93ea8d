package config

import "time"

type SecurityConfig interface {
	GetFlowStateTTL() time.Duration
	GetUpstreamTimeout() time.Duration
	GetSubmitRateLimit() int
	GetAuthRateLimit() int
	GetStrictSubmissions() bool
	GetTokenEncryptionKey() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetFlowStateTTL bounds how long an unanswered authorization redirect is remembered
func (Security) GetFlowStateTTL() time.Duration {
	return GetEnvDuration("FLOW_STATE_TTL", 10*time.Minute)
}

// GetUpstreamTimeout applies to every call to the Airtable token endpoint and API
func (Security) GetUpstreamTimeout() time.Duration {
	return GetEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second)
}

// GetSubmitRateLimit is the number of public submissions allowed per IP per minute
func (Security) GetSubmitRateLimit() int {
	return GetEnvInt("SUBMIT_RATE_LIMIT", 30)
}

// GetAuthRateLimit is the number of authorization starts allowed per IP per minute
func (Security) GetAuthRateLimit() int {
	return GetEnvInt("AUTH_RATE_LIMIT", 10)
}

// GetStrictSubmissions enables server side validation of submissions against
// the saved form config. Off by default: the public form validates.
func (Security) GetStrictSubmissions() bool {
	return GetEnvBool("STRICT_SUBMISSIONS", false)
}

// GetTokenEncryptionKey seals stored access/refresh tokens when set
func (Security) GetTokenEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

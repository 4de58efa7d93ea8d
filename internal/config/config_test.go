package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-airtable-forms/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "BACKEND_PORT", "AIRTABLE_URL", "AIRTABLE_API_URL", "FLOW_STATE_TTL", "ALLOWED_ORIGINS", "STRICT_SUBMISSIONS", "SUBMIT_RATE_LIMIT", "AUTH_RATE_LIMIT"} {
		t.Setenv(name, "")
	}
	c := config.New("does-not-exist.env")

	require.Equal(t, ":8000", c.GetPort())
	require.Equal(t, "https://airtable.com", c.GetAirtableURL())
	require.Equal(t, "https://api.airtable.com/v0", c.GetAirtableAPIURL())
	require.Equal(t, 10*time.Minute, c.GetFlowStateTTL())
	require.False(t, c.GetStrictSubmissions())
	require.Equal(t, 30, c.GetSubmitRateLimit())
	require.Equal(t, 10, c.GetAuthRateLimit())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("*"))
}

func TestOverrides(t *testing.T) {
	t.Setenv("BACKEND_PORT", "9000")
	t.Setenv("FRONTEND_URL", "http://localhost:5173/")
	t.Setenv("FLOW_STATE_TTL", "90")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test/")
	t.Setenv("STRICT_SUBMISSIONS", "true")
	t.Setenv("AUTH_RATE_LIMIT", "3")
	c := config.New("does-not-exist.env")

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "http://localhost:5173", c.GetFrontendURL())
	require.Equal(t, 90*time.Second, c.GetFlowStateTTL())
	require.Equal(t, 2*time.Second, c.GetUpstreamTimeout())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://b.test"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("*"))
	require.True(t, c.GetStrictSubmissions())
	require.Equal(t, 3, c.GetAuthRateLimit())
}

func TestValidate(t *testing.T) {
	t.Setenv("CLIENT_ID", "")
	t.Setenv("REDIRECT_URI", "")
	t.Setenv("FRONTEND_URL", "")
	err := config.New("does-not-exist.env").Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CLIENT_ID")
	require.Contains(t, err.Error(), "REDIRECT_URI")

	t.Setenv("CLIENT_ID", "client")
	t.Setenv("REDIRECT_URI", "http://localhost:8000/auth/callback")
	t.Setenv("FRONTEND_URL", "http://localhost:5173")
	require.NoError(t, config.New("does-not-exist.env").Validate())
}

package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	AirtableConfig
	DatabaseConfig
	CorsConfig
	SecurityConfig
	LogConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetFrontendURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Airtable
	Database
	Cors
	Security
	Logging
}

// New loads any .env files present in the working directory and returns the
// environment backed configuration. Variables already set in the process
// environment take precedence over .env values.
func New(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)
	return mainConfig{}
}

// Validate reports the settings the service cannot start without.
func (c mainConfig) Validate() error {
	var missing []string
	if c.GetClientID() == "" {
		missing = append(missing, clientIDVar)
	}
	if c.GetRedirectURI() == "" {
		missing = append(missing, redirectURIVar)
	}
	if c.GetFrontendURL() == "" {
		missing = append(missing, frontendURLVar)
	}
	if len(missing) > 0 {
		return fmt.Errorf("[config Validate] missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error taxonomy shared by the OAuth flow, the Airtable gateway and the stores
var (
	// Request errors
	ErrValidation = errors.New("validation error")

	// Credential errors
	ErrNotAuthenticated        = errors.New("user is not authenticated with airtable")
	ErrNoRefreshToken          = errors.New("no refresh token on file")
	ErrRefreshFailed           = errors.New("token refresh failed")
	ErrExpiredAndRefreshFailed = errors.New("access token expired and refresh failed")

	// Authorization flow errors
	ErrInvalidState        = errors.New("invalid state parameter")
	ErrProviderDenied      = errors.New("authorization denied by provider")
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// Lookup errors
	ErrNotFound      = errors.New("not found")
	ErrTableNotFound = fmt.Errorf("table %w", ErrNotFound)

	// Infrastructure errors
	ErrPersistence = errors.New("persistence error")
	ErrTimeout     = errors.New("upstream timeout")
)

// UpstreamError is returned when Airtable answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("airtable responded %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("airtable responded %d", e.StatusCode)
}

// Message extracts the provider's error message from the response body.
// Airtable uses either {"error":{"type":..,"message":..}} or {"error":"TYPE"}.
func (e *UpstreamError) Message() string {
	errField := gjson.GetBytes(e.Body, "error")
	switch {
	case errField.Get("message").Exists():
		return errField.Get("message").String()
	case errField.Get("type").Exists():
		return errField.Get("type").String()
	case errField.Type == gjson.String:
		return errField.String()
	}
	return http.StatusText(e.StatusCode)
}

// ProviderDeniedError carries the error the provider reported on the callback.
type ProviderDeniedError struct {
	Code        string
	Description string
}

func (e *ProviderDeniedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: %s", ErrProviderDenied, e.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrProviderDenied, e.Code, e.Description)
}

func (e *ProviderDeniedError) Is(target error) bool {
	return target == ErrProviderDenied
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is a passthrough to the standard errors.New
func New(text string) error {
	return errors.New(text)
}

package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrCSRFMismatch is returned when the state echoed by the provider does
	// not match the one issued for this browser, or was already consumed.
	ErrCSRFMismatch = errors.New("oauth: state mismatch")
	// ErrPKCEVerifierMissing is returned when a provider requires PKCE and no
	// verifier is stored for it at callback time.
	ErrPKCEVerifierMissing = errors.New("oauth: pkce verifier missing")
	// ErrMissingCode is returned when the callback carries neither an error
	// nor an authorization code.
	ErrMissingCode = errors.New("oauth: authorization code missing")
)

// ConfigurationError reports a provider that cannot be used because of
// missing or unknown configuration. It is raised before any network call.
type ConfigurationError struct {
	Provider string
	Field    string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "provider" {
		return fmt.Sprintf("oauth: unknown provider %q", e.Provider)
	}
	return fmt.Sprintf("oauth: provider %q is missing %s", e.Provider, e.Field)
}

// ProviderError is the error reported by the authorization server on the
// redirect back, e.g. access_denied.
type ProviderError struct {
	Provider    string
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: %s returned %s: %s", e.Provider, e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: %s returned %s", e.Provider, e.Code)
}

// ForwardError wraps a failed hand-off of the authorization code to the
// backend. The attempt is over; the user has to connect again.
type ForwardError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ForwardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth: forwarding %s callback: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("oauth: backend rejected %s callback with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// Reason returns a short machine-readable code for a rejected flow, suitable
// for a query parameter on the page the user lands on.
func Reason(err error) string {
	var cfgErr *ConfigurationError
	var provErr *ProviderError
	var fwdErr *ForwardError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCSRFMismatch):
		return "state_mismatch"
	case errors.Is(err, ErrPKCEVerifierMissing):
		return "pkce_verifier_missing"
	case errors.Is(err, ErrMissingCode):
		return "code_missing"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &provErr):
		return provErr.Code
	case errors.As(err, &fwdErr):
		return "forward_failed"
	default:
		return "internal"
	}
}

package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-training/account-linker/pkg/core"
)

// defaultCallbackProvider is assumed when the callback path names no provider.
const defaultCallbackProvider = core.PlatformInstagram

// CallbackParams is what the provider sends back on the redirect.
type CallbackParams struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback reads the redirect query. platform is the last path segment
// of the callback route and may be empty on the legacy unscoped route.
func ParseCallback(platform string, query url.Values) CallbackParams {
	provider := normalizeID(platform)
	if provider == "" {
		provider = defaultCallbackProvider
	}
	return CallbackParams{
		Provider:         provider,
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}
}

// Landing is where a navigation ended up.
type Landing struct {
	StatusCode int
	// Location is the redirect target returned by the backend, if any.
	Location string
	// Message is the backend's error message for non-success responses.
	Message string
}

// Navigator performs a full navigation the way a browser would: credentials
// attached, cookies from the response applied, redirects reported rather
// than chased.
type Navigator interface {
	Navigate(ctx context.Context, target string) (*Landing, error)
}

// Resolution is the outcome of an accepted callback.
type Resolution struct {
	Provider string
	Location string
}

// Reconciler resumes a connect flow when the browser returns from the
// provider. It needs nothing from the process that started the flow.
type Reconciler struct {
	registry *Registry
	backend  *url.URL
}

// NewReconciler creates a Reconciler forwarding codes to
// {backendURL}/social/callback/{provider}.
func NewReconciler(registry *Registry, backendURL string) (*Reconciler, error) {
	u, err := url.Parse(strings.TrimRight(backendURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("oauth: parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("oauth: backend url %q must be absolute", backendURL)
	}
	return &Reconciler{registry: registry, backend: u}, nil
}

// Resume validates the callback against flow and forwards the code through
// nav. Every rejection happens before any network call except a failed
// forward, which is terminal for this attempt.
func (r *Reconciler) Resume(ctx context.Context, flow *Flow, params CallbackParams, nav Navigator) (*Resolution, error) {
	logger := core.LoggerFromCtx(ctx).With("provider", params.Provider)

	if params.Error != "" {
		logger.Warn("Provider returned an error", "error", params.Error)
		return nil, &ProviderError{
			Provider:    params.Provider,
			Code:        params.Error,
			Description: params.ErrorDescription,
		}
	}
	if params.Code == "" {
		logger.Warn("Callback without authorization code")
		return nil, ErrMissingCode
	}

	cfg, found := r.registry.Lookup(params.Provider)

	// The verifier is taken before the state so a replayed PKCE callback
	// reports the missing verifier. Both are consumed either way.
	var verifier string
	var verifierErr error
	if found && cfg.RequiresPKCE {
		verifier, verifierErr = flow.Verifiers.Consume(ctx, cfg.ID)
	}

	ok, err := flow.States.Verify(ctx, params.State)
	if err != nil {
		return nil, err
	}
	if verifierErr != nil {
		logger.Warn("PKCE verifier unavailable", "error", verifierErr)
		return nil, verifierErr
	}
	if !ok {
		logger.Warn("State mismatch on callback")
		return nil, ErrCSRFMismatch
	}
	if !found {
		return nil, &ConfigurationError{Provider: params.Provider, Field: "provider"}
	}

	query := url.Values{}
	query.Set("code", params.Code)
	query.Set("state", params.State)
	if cfg.RequiresPKCE {
		query.Set("code_verifier", verifier)
	}

	target := r.backend.JoinPath("social", "callback", cfg.ID)
	target.RawQuery = query.Encode()

	logger.Info("Forwarding authorization code to backend")
	landing, err := nav.Navigate(ctx, target.String())
	if err != nil {
		return nil, &ForwardError{Provider: cfg.ID, Err: err}
	}
	if landing.StatusCode >= 400 {
		return nil, &ForwardError{
			Provider:   cfg.ID,
			StatusCode: landing.StatusCode,
			Message:    landing.Message,
		}
	}

	return &Resolution{Provider: cfg.ID, Location: landing.Location}, nil
}

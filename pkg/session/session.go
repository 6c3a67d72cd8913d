// Package session holds the backend credentials of one browser and applies
// them to outgoing requests. Call sites never branch on the scheme.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
)

// Scheme selects how the backend session is carried.
type Scheme string

const (
	// SchemeCookie replays the backend's HttpOnly session cookie.
	SchemeCookie Scheme = "cookie"
	// SchemeBearer sends a token from the login response body. Navigations
	// carry it in the URL, so it exists for older backends only.
	SchemeBearer Scheme = "bearer"
)

// ParseScheme parses a scheme name, case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeCookie:
		return SchemeCookie, nil
	case SchemeBearer:
		return SchemeBearer, nil
	default:
		return "", fmt.Errorf("invalid session scheme: %q", s)
	}
}

// Store is the per-browser session.
type Store interface {
	Scheme() Scheme
	// IsAuthenticated reports whether a credential is held locally.
	IsAuthenticated(ctx context.Context) bool
	// Authorize attaches the credential to a background API request.
	Authorize(ctx context.Context, req *http.Request) error
	// AuthorizeNavigation attaches the credential to a full navigation.
	AuthorizeNavigation(ctx context.Context, req *http.Request) error
	// Capture applies any credential carried by a backend response.
	Capture(ctx context.Context, resp *backend.Response) error
	// Forget clears the local credential without contacting the backend.
	Forget(ctx context.Context) error
	// Invalidate ends the session. It is always unauthenticated afterwards.
	Invalidate(ctx context.Context) error
}

// Options configure New.
type Options struct {
	Scheme Scheme
	// CookieName is the backend session cookie captured by the cookie scheme.
	CookieName string
}

// New returns the Store for opts.Scheme over store.
func New(opts Options, store core.Store, client *backend.Client) (Store, error) {
	switch opts.Scheme {
	case SchemeBearer:
		return NewBearer(store), nil
	case SchemeCookie, "":
		return NewCookie(store, client, opts.CookieName), nil
	default:
		return nil, fmt.Errorf("invalid session scheme: %q", opts.Scheme)
	}
}

// Navigation adapts s to backend.Authorizer for navigations.
func Navigation(s Store) backend.Authorizer {
	return backend.AuthorizerFunc(s.AuthorizeNavigation)
}

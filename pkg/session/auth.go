package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
)

// UserType is the account role chosen at registration.
type UserType string

const (
	UserTypeBrand      UserType = "BRAND"
	UserTypeInfluencer UserType = "INFLUENCER"
	UserTypeAdmin      UserType = "ADMIN"
)

// ParseUserType parses a user type, case-insensitively.
func ParseUserType(s string) (UserType, error) {
	switch t := UserType(strings.ToUpper(strings.TrimSpace(s))); t {
	case UserTypeBrand, UserTypeInfluencer, UserTypeAdmin:
		return t, nil
	default:
		return "", fmt.Errorf("invalid user type: %q", s)
	}
}

// ErrNoCredential is returned when the backend accepted a login but the
// response carried no credential for the configured scheme.
var ErrNoCredential = errors.New("backend response carried no session credential")

// RequestError is a non-2xx answer to an auth call.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Message)
}

// Authenticator logs a browser in against the backend and records the
// resulting credential in its session.
type Authenticator struct {
	client  *backend.Client
	session Store
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(client *backend.Client, session Store) *Authenticator {
	return &Authenticator{client: client, session: session}
}

// Login authenticates with email and password.
func (a *Authenticator) Login(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, "login", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and logs in.
func (a *Authenticator) Register(ctx context.Context, email, password string, userType UserType) error {
	ut, err := ParseUserType(string(userType))
	if err != nil {
		return err
	}
	return a.authenticate(ctx, "registration", "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"userType": string(ut),
	})
}

// LoginWithIDToken exchanges an identity provider ID token for a session.
func (a *Authenticator) LoginWithIDToken(ctx context.Context, idToken string, userType UserType) error {
	ut, err := ParseUserType(string(userType))
	if err != nil {
		return err
	}
	return a.authenticate(ctx, "social login", "/auth/google", map[string]string{
		"idToken":  idToken,
		"userType": string(ut),
	})
}

// Logout invalidates the session.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.session.Invalidate(ctx)
}

func (a *Authenticator) authenticate(ctx context.Context, op, path string, body any) error {
	resp, err := a.client.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.OK() {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Message: resp.Message()}
	}
	if err := a.session.Capture(ctx, resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !a.session.IsAuthenticated(ctx) {
		return fmt.Errorf("%s: %w", op, ErrNoCredential)
	}

	core.LoggerFromCtx(ctx).Info("Session established", "op", op, "scheme", a.session.Scheme())
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
)

// tokenKey holds the bearer token.
const tokenKey = "token"

// Bearer keeps a token taken from the login response body.
type Bearer struct {
	store core.Store
}

// NewBearer creates a Bearer session over store.
func NewBearer(store core.Store) *Bearer {
	return &Bearer{store: store}
}

// Scheme implements Store.
func (b *Bearer) Scheme() Scheme { return SchemeBearer }

func (b *Bearer) token(ctx context.Context) (string, error) {
	token, err := b.store.Get(ctx, tokenKey)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// IsAuthenticated implements Store.
func (b *Bearer) IsAuthenticated(ctx context.Context) bool {
	token, err := b.token(ctx)
	if err != nil {
		core.LoggerFromCtx(ctx).Error("Failed to read session token", "error", err)
		return false
	}
	return token != ""
}

// SetToken stores token as the current credential.
func (b *Bearer) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return b.Forget(ctx)
	}
	return b.store.Put(ctx, tokenKey, token)
}

// Authorize sets the Authorization header.
func (b *Bearer) Authorize(ctx context.Context, req *http.Request) error {
	token, err := b.token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// AuthorizeNavigation appends the token as the "token" query parameter.
// A navigation cannot carry headers, so this leaks the token into URLs and
// logs; prefer the cookie scheme.
func (b *Bearer) AuthorizeNavigation(ctx context.Context, req *http.Request) error {
	token, err := b.token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		q := req.URL.Query()
		q.Set("token", token)
		req.URL.RawQuery = q.Encode()
	}
	return nil
}

// Capture stores the "token" field of a JSON response body, if present.
func (b *Bearer) Capture(ctx context.Context, resp *backend.Response) error {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Token == "" {
		return nil
	}
	return b.store.Put(ctx, tokenKey, payload.Token)
}

// Forget implements Store.
func (b *Bearer) Forget(ctx context.Context) error {
	return b.store.Delete(ctx, tokenKey)
}

// Invalidate drops the token. The backend keeps no state for it.
func (b *Bearer) Invalidate(ctx context.Context) error {
	return b.Forget(ctx)
}

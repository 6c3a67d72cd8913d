package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
)

const (
	// cookieKey holds the captured backend session cookie value.
	cookieKey = "session_cookie"
	// DefaultCookieName is the backend's session cookie.
	DefaultCookieName = "token"
)

// Cookie replays the backend session cookie, the way a browser would for
// requests sent with credentials included.
type Cookie struct {
	store  core.Store
	client *backend.Client
	name   string
}

// NewCookie creates a Cookie session. client is used for logout only.
func NewCookie(store core.Store, client *backend.Client, name string) *Cookie {
	if name == "" {
		name = DefaultCookieName
	}
	return &Cookie{store: store, client: client, name: name}
}

// Scheme implements Store.
func (c *Cookie) Scheme() Scheme { return SchemeCookie }

func (c *Cookie) value(ctx context.Context) (string, error) {
	v, err := c.store.Get(ctx, cookieKey)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// IsAuthenticated implements Store.
func (c *Cookie) IsAuthenticated(ctx context.Context) bool {
	v, err := c.value(ctx)
	if err != nil {
		core.LoggerFromCtx(ctx).Error("Failed to read session cookie", "error", err)
		return false
	}
	return v != ""
}

// Authorize adds the session cookie.
func (c *Cookie) Authorize(ctx context.Context, req *http.Request) error {
	v, err := c.value(ctx)
	if err != nil {
		return err
	}
	if v != "" {
		req.AddCookie(&http.Cookie{Name: c.name, Value: v})
	}
	return nil
}

// AuthorizeNavigation is Authorize; navigations send cookies too.
func (c *Cookie) AuthorizeNavigation(ctx context.Context, req *http.Request) error {
	return c.Authorize(ctx, req)
}

// Capture applies a Set-Cookie for the session cookie, including deletions.
func (c *Cookie) Capture(ctx context.Context, resp *backend.Response) error {
	for _, ck := range resp.Cookies {
		if ck.Name != c.name {
			continue
		}
		if expired(ck) {
			return c.Forget(ctx)
		}
		return c.store.Put(ctx, cookieKey, ck.Value)
	}
	return nil
}

func expired(ck *http.Cookie) bool {
	if ck.Value == "" || ck.MaxAge < 0 {
		return true
	}
	return !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
}

// Forget implements Store.
func (c *Cookie) Forget(ctx context.Context) error {
	return c.store.Delete(ctx, cookieKey)
}

// Invalidate asks the backend to end the session, then clears the local
// cookie whether or not that succeeded.
func (c *Cookie) Invalidate(ctx context.Context) error {
	logger := core.LoggerFromCtx(ctx)

	if c.client != nil && c.IsAuthenticated(ctx) {
		resp, err := c.client.Do(ctx, backend.Request{
			Method: http.MethodPost,
			Path:   "/auth/logout",
			Auth:   c,
		})
		switch {
		case err != nil:
			logger.Warn("Backend logout failed, clearing local session", "error", err)
		case !resp.OK():
			logger.Warn("Backend logout failed, clearing local session",
				"status", resp.StatusCode,
				"message", resp.Message(),
			)
		}
	}

	return c.Forget(ctx)
}

package main

import (
	"context"
	"net/http"

	"github.com/go-training/account-linker/pkg/account"
	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/oauth"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	deviceCookie = "link_device"
	deviceMaxAge = 365 * 24 * 60 * 60
	deviceCtxKey = "device"
)

// Device is everything this server holds for one browser: its storage,
// backend session and in-flight connect flow.
type Device struct {
	ID       string
	Store    core.Store
	Session  session.Store
	Flow     *oauth.Flow
	Accounts *account.Client
	Auth     *session.Authenticator
	Board    *account.Board
}

// deviceMiddleware identifies the browser by its link_device cookie,
// issuing one on first contact, and attaches its Device to the request.
func (a *app) deviceMiddleware(c *gin.Context) {
	id, err := c.Cookie(deviceCookie)
	if _, perr := uuid.Parse(id); err != nil || perr != nil {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(deviceCookie, id, deviceMaxAge, "/", "", c.Request.TLS != nil, true)
	}

	dev, err := a.device(id)
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Failed to build device", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Request = c.Request.WithContext(core.WithDevice(c.Request.Context(), id))
	c.Set(deviceCtxKey, dev)
	c.Next()
}

func (a *app) device(id string) (*Device, error) {
	st := store.Scoped(a.store, "device:"+id)
	sess, err := session.New(a.sessionOpts, st, a.backend)
	if err != nil {
		return nil, err
	}
	return &Device{
		ID:       id,
		Store:    st,
		Session:  sess,
		Flow:     oauth.NewFlow(st, a.random),
		Accounts: account.NewClient(a.backend, sess),
		Auth:     session.NewAuthenticator(a.backend, sess),
		Board:    account.NewBoard(st, a.registry.Providers()...),
	}, nil
}

func deviceFrom(c *gin.Context) *Device {
	return c.MustGet(deviceCtxKey).(*Device)
}

// navigator follows the backend callback like the browser would: session
// credentials attached, response cookies applied, redirects reported. A 401
// drops the local session, as account calls do.
type navigator struct {
	backend *backend.Client
	session session.Store
}

func (n navigator) Navigate(ctx context.Context, target string) (*oauth.Landing, error) {
	resp, err := n.backend.Navigate(ctx, target, session.Navigation(n.session))
	if err != nil {
		return nil, err
	}
	if err := n.session.Capture(ctx, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		core.LoggerFromCtx(ctx).Warn("Backend rejected the session on callback")
		if err := n.session.Forget(ctx); err != nil {
			return nil, err
		}
	}

	landing := &oauth.Landing{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}
	if resp.StatusCode >= http.StatusBadRequest {
		landing.Message = resp.Message()
	}
	return landing, nil
}

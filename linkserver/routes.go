package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-training/account-linker/pkg/account"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/oauth"
	"github.com/go-training/account-linker/pkg/session"

	"github.com/gin-gonic/gin"
)

func (a *app) status(c *gin.Context) {
	ctx := c.Request.Context()
	dev := deviceFrom(c)
	syncStatus := c.Query("sync_status")
	if syncStatus != "" {
		refresh(c, dev)
	}
	gen, err := dev.Board.Generation(ctx)
	if err != nil {
		core.LoggerFromCtx(ctx).Warn("Failed to read refresh generation", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": dev.Session.IsAuthenticated(ctx),
		"scheme":        dev.Session.Scheme(),
		"generation":    gen,
		"sync_status":   syncStatus,
		"link_error":    c.Query("link_error"),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"userType" binding:"required"`
}

type idTokenRequest struct {
	IDToken  string `json:"idToken" binding:"required"`
	UserType string `json:"userType"`
}

func (a *app) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	dev := deviceFrom(c)
	a.authenticated(c, dev, dev.Auth.Login(c.Request.Context(), req.Email, req.Password))
}

func (a *app) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and userType are required"})
		return
	}
	userType, err := session.ParseUserType(req.UserType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dev := deviceFrom(c)
	a.authenticated(c, dev, dev.Auth.Register(c.Request.Context(), req.Email, req.Password, userType))
}

func (a *app) loginWithIDToken(c *gin.Context) {
	var req idTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken is required"})
		return
	}
	userType := session.UserTypeInfluencer
	if req.UserType != "" {
		ut, err := session.ParseUserType(req.UserType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userType = ut
	}
	dev := deviceFrom(c)
	a.authenticated(c, dev, dev.Auth.LoginWithIDToken(c.Request.Context(), req.IDToken, userType))
}

func (a *app) authenticated(c *gin.Context, dev *Device, err error) {
	var reqErr *session.RequestError
	switch {
	case errors.As(err, &reqErr):
		c.JSON(reqErr.StatusCode, gin.H{"error": reqErr.Message})
		return
	case err != nil:
		core.LoggerFromCtx(c.Request.Context()).Error("Authentication failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"generation":    refresh(c, dev),
	})
}

func (a *app) logout(c *gin.Context) {
	dev := deviceFrom(c)
	if err := dev.Auth.Logout(c.Request.Context()); err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Failed to clear session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// connect starts the flow: it persists the continuation for this browser
// and sends it to the provider's consent dialog.
func (a *app) connect(c *gin.Context) {
	dev := deviceFrom(c)
	target, err := a.registry.AuthorizationURL(c.Request.Context(), c.Param("platform"), dev.Flow)
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("Cannot start connect flow",
			"platform", c.Param("platform"),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"reason": oauth.Reason(err),
		})
		return
	}
	c.Redirect(http.StatusFound, target)
}

// callback resumes the flow when the provider sends the browser back.
func (a *app) callback(c *gin.Context) {
	ctx := c.Request.Context()
	dev := deviceFrom(c)
	params := oauth.ParseCallback(c.Param("platform"), c.Request.URL.Query())

	res, err := a.reconciler.Resume(ctx, dev.Flow, params, navigator{backend: a.backend, session: dev.Session})
	if err != nil {
		core.LoggerFromCtx(ctx).Warn("Callback rejected",
			"provider", params.Provider,
			"reason", oauth.Reason(err),
			"error", err,
		)
		c.Redirect(http.StatusFound, "/?"+url.Values{"link_error": {oauth.Reason(err)}}.Encode())
		return
	}

	refresh(c, dev)
	core.LoggerFromCtx(ctx).Info("Account linked", "provider", res.Provider)

	if loc, ok := localRedirect(res.Location, c.Request.Host); ok {
		c.Redirect(http.StatusFound, loc)
		return
	}
	c.Redirect(http.StatusFound, "/?"+url.Values{"sync_status": {res.Provider}}.Encode())
}

// localRedirect returns the path of loc when it points at this host,
// either as a relative path or an absolute URL with the same host.
func localRedirect(loc, host string) (string, bool) {
	if loc == "" {
		return "", false
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", false
	}
	if u.IsAbs() || u.Host != "" {
		if !strings.EqualFold(u.Host, host) {
			return "", false
		}
	} else if !strings.HasPrefix(loc, "/") || strings.HasPrefix(loc, "//") || strings.HasPrefix(loc, "/\\") {
		return "", false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, true
}

func (a *app) sync(c *gin.Context) {
	dev := deviceFrom(c)
	ack, err := dev.Accounts.TriggerSync(c.Request.Context(), c.Param("platform"))
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"platform":   ack.Platform,
		"message":    ack.Message,
		"generation": refresh(c, dev),
	})
}

func (a *app) snapshot(c *gin.Context) {
	snap, err := deviceFrom(c).Accounts.FetchSnapshot(c.Request.Context(), c.Param("platform"))
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *app) accounts(c *gin.Context) {
	dev := deviceFrom(c)
	ov, err := dev.Board.Load(c.Request.Context(), dev.Accounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ov)
}

// refresh bumps the device's refresh generation. Failures are logged, not
// returned: the request that caused the bump has already succeeded.
func refresh(c *gin.Context, dev *Device) uint64 {
	gen, err := dev.Board.Refresh(c.Request.Context())
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Warn("Failed to bump refresh generation", "error", err)
	}
	return gen
}

func accountError(c *gin.Context, err error) {
	var tErr *account.TransientFetchError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, account.ErrLoginRequired), errors.Is(err, account.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, account.ErrNotConnected):
		status = http.StatusNotFound
	case errors.As(err, &tErr):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"error":  err.Error(),
		"status": account.Classify(err),
	})
}

// Package main runs the account linker: a backend-for-frontend that drives
// provider consent flows for each browser, hands authorization codes to the
// account backend and serves synced account data, plus an MCP endpoint
// exposing the same account operations to agents.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/config"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/logger"
	"github.com/go-training/account-linker/pkg/oauth"
	"github.com/go-training/account-linker/pkg/operation"
	"github.com/go-training/account-linker/pkg/operation/social"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/appleboy/graceful"
	ginslog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

const version = "1.0.0"

// app wires the shared components. Per-browser state, the refresh
// generation included, lives in store under the device namespace.
type app struct {
	store       core.Store
	backend     *backend.Client
	registry    *oauth.Registry
	reconciler  *oauth.Reconciler
	sessionOpts session.Options
	origins     []string
	// random feeds state and verifier generation; nil means crypto/rand.
	random io.Reader
	mcp    *server.StreamableHTTPServer
}

func newApp(cfg *config.Config, st core.Store, random io.Reader) (*app, error) {
	client, err := backend.NewClient(cfg.APIURL, backend.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, err
	}

	registry, err := oauth.NewRegistry(
		oauth.NewPKCEGenerator(random),
		oauth.WithCredentials(oauth.DefaultProviders(), cfg.Credentials)...,
	)
	if err != nil {
		return nil, err
	}

	reconciler, err := oauth.NewReconciler(registry, cfg.APIURL)
	if err != nil {
		return nil, err
	}

	mcpServer := operation.NewServer(version, social.New(client, registry.Providers()))

	return &app{
		store:       st,
		backend:     client,
		registry:    registry,
		reconciler:  reconciler,
		sessionOpts: cfg.Session,
		origins:     cfg.AllowedOrigins,
		random:      random,
		mcp: server.NewStreamableHTTPServer(mcpServer,
			server.WithHeartbeatInterval(30*time.Second),
			server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
				ctx = core.AuthFromRequest(ctx, r)
				return core.WithRequestID(ctx)
			}),
		),
	}, nil
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginslog.SetLogger())
	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(a.origins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register POST, GET, DELETE methods for the /mcp path, all handled by the MCP server
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		r.Handle(method, "/mcp", authMiddleware, gin.WrapH(a.mcp))
	}

	browser := r.Group("/", a.deviceMiddleware)
	browser.GET("/", a.status)

	auth := browser.Group("/auth")
	auth.POST("/login", a.login)
	auth.POST("/register", a.register)
	auth.POST("/google", a.loginWithIDToken)
	auth.POST("/logout", a.logout)

	links := browser.Group("/social")
	links.GET("/connect/:platform", a.connect)
	links.GET("/callback", a.callback)
	links.GET("/callback/:platform", a.callback)
	links.POST("/sync/:platform", a.sync)
	links.GET("/account/:platform", a.snapshot)
	links.GET("/accounts", a.accounts)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New()
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var addr string
	var logLevel string
	var storeType string
	var redisAddr string
	var redisPassword string
	var redisDB int
	flag.StringVar(&addr, "addr", cfg.Addr, "address to listen on")
	flag.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	flag.StringVar(&storeType, "store", cfg.Store.Type.String(), "Store type: memory or redis")
	flag.StringVar(&redisAddr, "redis-addr", cfg.Store.Redis.Addr, "Redis address (only used when store=redis)")
	flag.StringVar(&redisPassword, "redis-password", cfg.Store.Redis.Password, "Redis password (only used when store=redis)")
	flag.IntVar(&redisDB, "redis-db", cfg.Store.Redis.DB, "Redis database (only used when store=redis)")
	flag.Parse()

	// Initialize logger with the specified log level
	logger.NewWithLevel(logLevel)

	storeConfig := store.Config{
		Type: store.ParseStoreType(storeType),
		Redis: store.RedisOptions{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
			KeyTTL:   cfg.Store.Redis.KeyTTL,
		},
	}
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 5*time.Second)
	linkStore, closeStore, err := store.Open(openCtx, storeConfig)
	cancelOpen()
	if err != nil {
		slog.Error("Failed to create store", "type", storeType, "error", err)
		os.Exit(1)
	}
	if storeConfig.Type == store.StoreTypeRedis {
		slog.Info("Using Redis store", "addr", redisAddr, "db", redisDB)
	} else {
		slog.Info("Using in-memory store")
	}

	a, err := newApp(cfg, linkStore, nil)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	slog.Info("Account linker configured",
		"api_url", cfg.APIURL,
		"session_scheme", cfg.Session.Scheme,
		"providers", a.registry.Providers(),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		slog.Info("Account linker listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		slog.Info("Shutdown signal received, shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Redis is closed only after in-flight requests are done with it.
		defer closeStore()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Server forced to shutdown", "err", err)
			return err
		}
		slog.Info("Server shutdown gracefully")
		return nil
	})

	<-m.Done()
}

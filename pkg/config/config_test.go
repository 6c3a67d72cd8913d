package config

import (
	"testing"
	"time"

	"github.com/go-training/account-linker/pkg/oauth"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Empty(t, cfg.LogLevel)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, session.SchemeCookie, cfg.Session.Scheme)
	assert.Equal(t, "token", cfg.Session.CookieName)
	assert.Equal(t, store.StoreTypeMemory, cfg.Store.Type)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Credentials)
}

func TestLoadFrom_Providers(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"LINK_API_URL":          "https://api.example.com/api/",
		"META_APP_ID":           "meta-app",
		"META_REDIRECT_BASE":    "https://app.example.com/social/callback/",
		"LINKEDIN_CLIENT_ID":    "li",
		"LINKEDIN_REDIRECT_URI": "https://app.example.com/social/callback/linkedin",
		"TWITTER_CLIENT_ID":     "tw",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api", cfg.APIURL)
	assert.Equal(t, map[string]oauth.Credentials{
		"instagram": {ClientID: "meta-app", RedirectURI: "https://app.example.com/social/callback/instagram"},
		"facebook":  {ClientID: "meta-app", RedirectURI: "https://app.example.com/social/callback/facebook"},
		"linkedin":  {ClientID: "li", RedirectURI: "https://app.example.com/social/callback/linkedin"},
		"twitter":   {ClientID: "tw"},
	}, cfg.Credentials)
}

func TestLoadFrom_StoreAndSession(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"LINK_STORE":           "Redis",
		"LINK_REDIS_ADDR":      "redis:6379",
		"LINK_REDIS_DB":        "2",
		"LINK_REDIS_KEY_TTL":   "15m",
		"LINK_SESSION_SCHEME":  "bearer",
		"LINK_ALLOWED_ORIGINS": "http://localhost:3000, ,https://app.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, store.StoreTypeRedis, cfg.Store.Type)
	assert.Equal(t, store.RedisOptions{Addr: "redis:6379", DB: 2, KeyTTL: 15 * time.Minute}, cfg.Store.Redis)
	assert.Equal(t, session.SchemeBearer, cfg.Session.Scheme)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadFrom_Invalid(t *testing.T) {
	_, err := LoadFrom(map[string]string{"LINK_SESSION_SCHEME": "basic"})
	assert.Error(t, err)

	_, err = LoadFrom(map[string]string{"LINK_REDIS_DB": "two"})
	assert.Error(t, err)

	_, err = LoadFrom(map[string]string{"LINK_REDIS_KEY_TTL": "-1s"})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("LINK_ADDR", ":9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
}

// Package config loads the linker configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/oauth"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/caarlos0/env/v11"
)

// Config is the resolved configuration.
type Config struct {
	Addr           string
	LogLevel       string
	APIURL         string
	RequestTimeout time.Duration
	Session        session.Options
	Store          store.Config
	AllowedOrigins []string
	Credentials    map[string]oauth.Credentials
}

// linkerEnv holds raw env values.
type linkerEnv struct {
	Addr           string        `env:"LINK_ADDR"            envDefault:":3000"`
	LogLevel       string        `env:"LINK_LOG_LEVEL"`
	APIURL         string        `env:"LINK_API_URL"         envDefault:"http://localhost:5000/api"`
	RequestTimeout time.Duration `env:"LINK_REQUEST_TIMEOUT" envDefault:"30s"`
	SessionScheme  string        `env:"LINK_SESSION_SCHEME"  envDefault:"cookie"`
	SessionCookie  string        `env:"LINK_SESSION_COOKIE"  envDefault:"token"`
	AllowedOrigins []string      `env:"LINK_ALLOWED_ORIGINS" envSeparator:","`

	StoreType     string        `env:"LINK_STORE"          envDefault:"memory"`
	RedisAddr     string        `env:"LINK_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"LINK_REDIS_PASSWORD"`
	RedisDB       int           `env:"LINK_REDIS_DB"       envDefault:"0"`
	RedisKeyTTL   time.Duration `env:"LINK_REDIS_KEY_TTL"`

	MetaAppID        string `env:"META_APP_ID"`
	MetaRedirectBase string `env:"META_REDIRECT_BASE"`

	LinkedInClientID    string `env:"LINKEDIN_CLIENT_ID"`
	LinkedInRedirectURI string `env:"LINKEDIN_REDIRECT_URI"`
	YouTubeClientID     string `env:"YOUTUBE_CLIENT_ID"`
	YouTubeRedirectURI  string `env:"YOUTUBE_REDIRECT_URI"`
	SnapchatClientID    string `env:"SNAPCHAT_CLIENT_ID"`
	SnapchatRedirectURI string `env:"SNAPCHAT_REDIRECT_URI"`
	TwitterClientID     string `env:"TWITTER_CLIENT_ID"`
	TwitterRedirectURI  string `env:"TWITTER_REDIRECT_URI"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	var raw linkerEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return build(raw)
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	var raw linkerEnv
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return build(raw)
}

func build(raw linkerEnv) (*Config, error) {
	scheme, err := session.ParseScheme(raw.SessionScheme)
	if err != nil {
		return nil, err
	}
	if raw.RedisKeyTTL < 0 {
		return nil, fmt.Errorf("LINK_REDIS_KEY_TTL must not be negative: %s", raw.RedisKeyTTL)
	}

	cfg := &Config{
		Addr:           raw.Addr,
		LogLevel:       raw.LogLevel,
		APIURL:         strings.TrimRight(raw.APIURL, "/"),
		RequestTimeout: raw.RequestTimeout,
		Session: session.Options{
			Scheme:     scheme,
			CookieName: raw.SessionCookie,
		},
		Store: store.Config{
			Type: store.ParseStoreType(raw.StoreType),
			Redis: store.RedisOptions{
				Addr:     raw.RedisAddr,
				Password: raw.RedisPassword,
				DB:       raw.RedisDB,
				KeyTTL:   raw.RedisKeyTTL,
			},
		},
		AllowedOrigins: trimCSV(raw.AllowedOrigins),
		Credentials:    map[string]oauth.Credentials{},
	}

	if raw.MetaAppID != "" || raw.MetaRedirectBase != "" {
		base := strings.TrimRight(raw.MetaRedirectBase, "/")
		for _, p := range []string{core.PlatformInstagram, core.PlatformFacebook} {
			redirect := ""
			if base != "" {
				redirect = base + "/" + p
			}
			cfg.Credentials[p] = oauth.Credentials{ClientID: raw.MetaAppID, RedirectURI: redirect}
		}
	}
	addCredentials(cfg.Credentials, core.PlatformLinkedIn, raw.LinkedInClientID, raw.LinkedInRedirectURI)
	addCredentials(cfg.Credentials, core.PlatformYouTube, raw.YouTubeClientID, raw.YouTubeRedirectURI)
	addCredentials(cfg.Credentials, core.PlatformSnapchat, raw.SnapchatClientID, raw.SnapchatRedirectURI)
	addCredentials(cfg.Credentials, core.PlatformTwitter, raw.TwitterClientID, raw.TwitterRedirectURI)

	return cfg, nil
}

func addCredentials(m map[string]oauth.Credentials, platform, clientID, redirectURI string) {
	if clientID == "" && redirectURI == "" {
		return
	}
	m[platform] = oauth.Credentials{ClientID: clientID, RedirectURI: redirectURI}
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

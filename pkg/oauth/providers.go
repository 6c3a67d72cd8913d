package oauth

import "github.com/go-training/account-linker/pkg/core"

// Authorization endpoints of the supported providers.
const (
	MetaAuthURL     = "https://www.facebook.com/v18.0/dialog/oauth"
	LinkedInAuthURL = "https://www.linkedin.com/oauth/v2/authorization"
	GoogleAuthURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	SnapchatAuthURL = "https://accounts.snapchat.com/accounts/oauth2/auth"
	TwitterAuthURL  = "https://twitter.com/i/oauth2/authorize"
)

// Credentials are the per-deployment parts of a provider config.
type Credentials struct {
	ClientID    string
	RedirectURI string
}

// DefaultProviders returns the built-in provider table without credentials.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			ID:                    core.PlatformInstagram,
			Family:                "meta",
			AuthorizationEndpoint: MetaAuthURL,
			Scopes: []string{
				"public_profile",
				"email",
				"pages_show_list",
				"instagram_basic",
				"instagram_manage_insights",
				"business_management",
			},
			ScopeSeparator: ",",
		},
		{
			ID:                    core.PlatformFacebook,
			Family:                "meta",
			AuthorizationEndpoint: MetaAuthURL,
			Scopes: []string{
				"public_profile",
				"email",
				"pages_show_list",
				"pages_read_engagement",
				"pages_manage_posts",
			},
			ScopeSeparator: ",",
		},
		{
			ID:                    core.PlatformLinkedIn,
			Family:                "linkedin",
			AuthorizationEndpoint: LinkedInAuthURL,
			Scopes:                []string{"openid", "profile", "email"},
		},
		{
			ID:                    core.PlatformYouTube,
			Family:                "google",
			AuthorizationEndpoint: GoogleAuthURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/youtube.readonly",
			},
			ExtraParams: map[string]string{
				"access_type":            "offline",
				"include_granted_scopes": "true",
				"prompt":                 "consent",
			},
		},
		{
			ID:                    core.PlatformSnapchat,
			Family:                "snapchat",
			AuthorizationEndpoint: SnapchatAuthURL,
			Scopes: []string{
				"https://auth.snapchat.com/oauth2/api/user.display_name",
				"https://auth.snapchat.com/oauth2/api/user.bitmoji.avatar",
			},
			RequiresPKCE: true,
		},
		{
			ID:                    core.PlatformTwitter,
			Family:                "twitter",
			AuthorizationEndpoint: TwitterAuthURL,
			Scopes:                []string{"tweet.read", "users.read", "follows.read", "offline.access"},
			RequiresPKCE:          true,
		},
	}
}

// WithCredentials returns a copy of configs with client ids and redirect
// URIs filled in from creds, keyed by provider id. Providers without an
// entry keep empty credentials and fail when used.
func WithCredentials(configs []ProviderConfig, creds map[string]Credentials) []ProviderConfig {
	out := make([]ProviderConfig, 0, len(configs))
	for _, cfg := range configs {
		cfg = cfg.clone()
		if c, ok := creds[normalizeID(cfg.ID)]; ok {
			cfg.ClientID = c.ClientID
			cfg.RedirectURI = c.RedirectURI
		}
		out = append(out, cfg)
	}
	return out
}

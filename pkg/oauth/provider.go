package oauth

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/go-training/account-linker/pkg/core"

	"golang.org/x/oauth2"
)

// ProviderConfig describes how to open the consent dialog of one provider.
type ProviderConfig struct {
	ID                    string
	Family                string
	AuthorizationEndpoint string
	ClientID              string
	RedirectURI           string
	Scopes                []string
	// ScopeSeparator joins Scopes; Meta dialogs expect ",", most others " ".
	ScopeSeparator string
	RequiresPKCE   bool
	ExtraParams    map[string]string
}

// Validate reports a ConfigurationError when the provider cannot be used.
func (c ProviderConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.ClientID) == "":
		return &ConfigurationError{Provider: c.ID, Field: "client id"}
	case strings.TrimSpace(c.RedirectURI) == "":
		return &ConfigurationError{Provider: c.ID, Field: "redirect uri"}
	}
	return nil
}

func (c ProviderConfig) scope() string {
	sep := c.ScopeSeparator
	if sep == "" {
		sep = " "
	}
	return strings.Join(c.Scopes, sep)
}

func (c ProviderConfig) clone() ProviderConfig {
	c.Scopes = slices.Clone(c.Scopes)
	c.ExtraParams = maps.Clone(c.ExtraParams)
	return c
}

// Flow is the state a connect action leaves behind for its callback: the
// anti-forgery token and any PKCE verifiers, all in one browser's storage.
type Flow struct {
	States    *StateTokens
	Verifiers *Verifiers
}

// NewFlow builds a Flow over store. A nil random source defaults to crypto/rand.
func NewFlow(store core.Store, random io.Reader) *Flow {
	return &Flow{
		States:    NewStateTokens(store, random),
		Verifiers: NewVerifiers(store),
	}
}

// Registry holds provider configurations and builds authorization URLs.
type Registry struct {
	providers map[string]ProviderConfig
	order     []string
	pkce      *PKCEGenerator
}

// NewRegistry validates the table shape (ids and endpoints) and copies each
// config. Missing credentials are reported later, when a provider is used.
func NewRegistry(pkce *PKCEGenerator, configs ...ProviderConfig) (*Registry, error) {
	if pkce == nil {
		pkce = NewPKCEGenerator(nil)
	}
	r := &Registry{
		providers: make(map[string]ProviderConfig, len(configs)),
		pkce:      pkce,
	}
	for _, cfg := range configs {
		cfg.ID = normalizeID(cfg.ID)
		if cfg.ID == "" {
			return nil, fmt.Errorf("oauth: provider id is required")
		}
		if strings.TrimSpace(cfg.AuthorizationEndpoint) == "" {
			return nil, fmt.Errorf("oauth: authorization endpoint is required for provider %q", cfg.ID)
		}
		if _, dup := r.providers[cfg.ID]; dup {
			return nil, fmt.Errorf("oauth: duplicate provider %q", cfg.ID)
		}
		r.providers[cfg.ID] = cfg.clone()
		r.order = append(r.order, cfg.ID)
	}
	return r, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Lookup returns a copy of the provider config.
func (r *Registry) Lookup(providerID string) (ProviderConfig, bool) {
	cfg, ok := r.providers[normalizeID(providerID)]
	if !ok {
		return ProviderConfig{}, false
	}
	return cfg.clone(), true
}

// Providers lists provider ids in registration order.
func (r *Registry) Providers() []string {
	return slices.Clone(r.order)
}

// AuthorizationURL persists the continuation for providerID in flow and
// returns the consent dialog URL. Navigating there ends the current request;
// the flow resumes in Reconciler.Resume.
func (r *Registry) AuthorizationURL(ctx context.Context, providerID string, flow *Flow) (string, error) {
	cfg, ok := r.Lookup(providerID)
	if !ok {
		return "", &ConfigurationError{Provider: providerID, Field: "provider"}
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var opts []oauth2.AuthCodeOption
	if cfg.RequiresPKCE {
		pair, err := r.pkce.Generate()
		if err != nil {
			return "", err
		}
		if err := flow.Verifiers.Save(ctx, cfg.ID, pair.Verifier); err != nil {
			return "", err
		}
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}

	state, err := flow.States.Issue(ctx)
	if err != nil {
		return "", err
	}

	for _, k := range slices.Sorted(maps.Keys(cfg.ExtraParams)) {
		opts = append(opts, oauth2.SetAuthURLParam(k, cfg.ExtraParams[k]))
	}

	oc := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Endpoint:    oauth2.Endpoint{AuthURL: cfg.AuthorizationEndpoint},
	}
	if scope := cfg.scope(); scope != "" {
		oc.Scopes = []string{scope}
	}

	core.LoggerFromCtx(ctx).Debug("Authorization URL built",
		"provider", cfg.ID,
		"pkce", cfg.RequiresPKCE,
	)
	return oc.AuthCodeURL(state, opts...), nil
}

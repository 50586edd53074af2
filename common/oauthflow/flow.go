// Package oauthflow implements the one-time interactive OAuth setup flows
// and the cached-token HTTP clients the agents use afterwards.
package oauthflow

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/vocal-agents/vocal-stack/common/config"
)

// Provider names the supported OAuth vendors.
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderSlack   Provider = "slack"
	ProviderGoogle  Provider = "google"
	ProviderDiscord Provider = "discord"
)

// endpoints maps providers to their authorize/token URLs.
var endpoints = map[Provider]oauth2.Endpoint{
	ProviderSpotify: {
		AuthURL:  "https://accounts.spotify.com/authorize",
		TokenURL: "https://accounts.spotify.com/api/token",
	},
	ProviderSlack: {
		AuthURL:  "https://slack.com/oauth/v2/authorize",
		TokenURL: "https://slack.com/api/oauth.v2.access",
	},
	ProviderGoogle: {
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
	ProviderDiscord: {
		AuthURL:  "https://discord.com/oauth2/authorize",
		TokenURL: "https://discord.com/api/v10/oauth2/token",
	},
}

// Flow drives an authorization-code OAuth handshake for one provider.
type Flow struct {
	Provider Provider
	cfg      config.OAuthConfig
	oauth    *oauth2.Config
	cache    *TokenCache
}

// NewFlow validates the OAuth app credentials and builds a flow.
func NewFlow(provider Provider, cfg config.OAuthConfig) (*Flow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	endpoint, ok := endpoints[provider]
	if !ok {
		return nil, fmt.Errorf("unknown OAuth provider %q", provider)
	}

	return &Flow{
		Provider: provider,
		cfg:      cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			// Fields preserves the configured scope string exactly:
			// space-separated scopes round-trip unchanged, and a
			// comma-separated Slack scope string stays one field.
			Scopes:   strings.Fields(cfg.Scopes),
			Endpoint: endpoint,
		},
		cache: NewTokenCache(cfg.CachePath),
	}, nil
}

// AuthURL builds the authorization URL the user opens in a browser. The
// URL embeds the exact configured redirect URI and scope string.
func (f *Flow) AuthURL(state string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if f.Provider == ProviderGoogle {
		// Google only returns a refresh token when consent is forced.
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return f.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades the authorization code for a token and persists it.
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if err := f.cache.Save(tok); err != nil {
		return nil, fmt.Errorf("persist token cache: %w", err)
	}
	return tok, nil
}

// StateSecret returns the HMAC secret used to sign the state parameter.
func (f *Flow) StateSecret() []byte {
	return []byte(f.cfg.ClientSecret)
}

// RedirectURI returns the configured redirect URI.
func (f *Flow) RedirectURI() string {
	return f.cfg.RedirectURI
}

// Client returns an HTTP client backed by the cached token, refreshing and
// re-persisting it as needed. Fails when no token has been cached yet.
func (f *Flow) Client(ctx context.Context) (*http.Client, error) {
	tok, err := f.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("no cached %s token (run the setup flow first): %w", f.Provider, err)
	}
	src := &persistingTokenSource{
		base:  f.oauth.TokenSource(ctx, tok),
		cache: f.cache,
		last:  tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

// Token returns the cached access token, refreshed if expired. SDKs that
// take a bearer token instead of an HTTP client use this.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := f.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("no cached %s token (run the setup flow first): %w", f.Provider, err)
	}
	src := &persistingTokenSource{
		base:  f.oauth.TokenSource(ctx, tok),
		cache: f.cache,
		last:  tok,
	}
	return src.Token()
}

// persistingTokenSource writes refreshed tokens back to the cache file so
// the next process start does not repeat the refresh.
type persistingTokenSource struct {
	base  oauth2.TokenSource
	cache *TokenCache
	last  *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := s.cache.Save(tok); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
	}
	return tok, nil
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Provider is one configured OAuth identity provider.
type Provider interface {
	// Name is the registry key and the value stored as Account.Provider.
	Name() string
	// AuthURL is where the user agent is sent to grant access.
	AuthURL() string
	// Exchange trades an authorization code for the user's profile.
	// A rejected code yields ErrInvalidCode.
	Exchange(ctx context.Context, code string) (Profile, error)
}

// OAuthClientConfig is the client registration of one provider.
// A provider without a client id is not registered.
type OAuthClientConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// Enabled reports whether the provider has credentials.
func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != ""
}

// ProvidersConfig loads every supported provider from the environment,
// e.g. GOOGLE_OAUTH_CLIENT_ID or YANDEX_OAUTH_REDIRECT_URL.
type ProvidersConfig struct {
	Google OAuthClientConfig `envPrefix:"GOOGLE_OAUTH_"`
	Yandex OAuthClientConfig `envPrefix:"YANDEX_OAUTH_"`
	GitHub OAuthClientConfig `envPrefix:"GITHUB_OAUTH_"`
}

// ProviderOption customises an adapter.
type ProviderOption func(*oauthProvider)

// WithHTTPClient sets the client used for token exchange and profile requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *oauthProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithEndpoint overrides the provider's OAuth endpoints.
func WithEndpoint(e oauth2.Endpoint) ProviderOption {
	return func(p *oauthProvider) {
		p.conf.Endpoint = e
	}
}

// WithUserInfoURL overrides the base URL of the provider's profile API.
func WithUserInfoURL(url string) ProviderOption {
	return func(p *oauthProvider) {
		p.apiURL = url
	}
}

// oauthProvider holds what every adapter shares: the oauth2 client config and
// an HTTP client for profile lookups.
type oauthProvider struct {
	name       string
	conf       *oauth2.Config
	httpClient *http.Client
	apiURL     string
	authOpts   []oauth2.AuthCodeOption
}

func newOAuthProvider(name string, cfg OAuthClientConfig, endpoint oauth2.Endpoint, scopes []string, apiURL string, opts []ProviderOption) *oauthProvider {
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}
	p := &oauthProvider{
		name: name,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *oauthProvider) Name() string {
	return p.name
}

func (p *oauthProvider) AuthURL() string {
	return p.conf.AuthCodeURL("", p.authOpts...)
}

// exchange trades code for a token using the adapter's HTTP client.
func (p *oauthProvider) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Join(ErrInvalidCode, err)
	}
	return tok, nil
}

// profile fills the token-derived fields shared by every provider.
func (p *oauthProvider) profile(tok *oauth2.Token) Profile {
	return Profile{
		Provider:     p.name,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}

// getJSON performs an authorized GET against the provider API and decodes the body into dst.
func (p *oauthProvider) getJSON(ctx context.Context, url, authorization string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s api returned status %d", p.name, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

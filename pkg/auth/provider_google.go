package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const ProviderGoogle = "google"

type googleProvider struct {
	*oauthProvider
}

var _ Provider = (*googleProvider)(nil)

// NewGoogleProvider creates the Google adapter.
func NewGoogleProvider(cfg OAuthClientConfig, opts ...ProviderOption) Provider {
	p := newOAuthProvider(ProviderGoogle, cfg, google.Endpoint,
		[]string{"openid", "email", "profile"},
		"https://www.googleapis.com", opts)
	p.authOpts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	return &googleProvider{p}
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.exchange(ctx, code)
	if err != nil {
		return Profile{}, err
	}

	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := p.getJSON(ctx, p.apiURL+"/oauth2/v2/userinfo", "Bearer "+tok.AccessToken, &u); err != nil {
		return Profile{}, fmt.Errorf("fetch google user: %w", err)
	}
	if u.Email == "" || !u.VerifiedEmail {
		return Profile{}, ErrNoVerifiedEmail
	}

	prof := p.profile(tok)
	prof.ExternalID = u.ID
	prof.Email = u.Email
	prof.DisplayName = u.Name
	prof.Picture = u.Picture
	return prof, nil
}

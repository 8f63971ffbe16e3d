package auth

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2/github"
)

const ProviderGitHub = "github"

type githubProvider struct {
	*oauthProvider
}

var _ Provider = (*githubProvider)(nil)

// NewGitHubProvider creates the GitHub adapter. The profile email is the
// primary verified address, falling back to any verified one.
func NewGitHubProvider(cfg OAuthClientConfig, opts ...ProviderOption) Provider {
	p := newOAuthProvider(ProviderGitHub, cfg, github.Endpoint,
		[]string{"read:user", "user:email"},
		"https://api.github.com", opts)
	return &githubProvider{p}
}

func (p *githubProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.exchange(ctx, code)
	if err != nil {
		return Profile{}, err
	}
	bearer := "Bearer " + tok.AccessToken

	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.getJSON(ctx, p.apiURL+"/user", bearer, &u); err != nil {
		return Profile{}, fmt.Errorf("fetch github user: %w", err)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(ctx, p.apiURL+"/user/emails", bearer, &emails); err != nil {
		return Profile{}, fmt.Errorf("fetch github emails: %w", err)
	}

	var email string
	for _, e := range emails {
		if e.Verified && (e.Primary || email == "") {
			email = e.Email
		}
	}
	if email == "" {
		return Profile{}, ErrNoVerifiedEmail
	}

	prof := p.profile(tok)
	prof.ExternalID = strconv.FormatInt(u.ID, 10)
	prof.Email = email
	prof.DisplayName = u.Name
	if prof.DisplayName == "" {
		prof.DisplayName = u.Login
	}
	prof.Picture = u.AvatarURL
	return prof, nil
}

package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/yandex"
)

const ProviderYandex = "yandex"

type yandexProvider struct {
	*oauthProvider
}

var _ Provider = (*yandexProvider)(nil)

// NewYandexProvider creates the Yandex ID adapter.
func NewYandexProvider(cfg OAuthClientConfig, opts ...ProviderOption) Provider {
	p := newOAuthProvider(ProviderYandex, cfg, yandex.Endpoint,
		[]string{"login:email", "login:avatar", "login:info"},
		"https://login.yandex.ru", opts)
	return &yandexProvider{p}
}

func (p *yandexProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.exchange(ctx, code)
	if err != nil {
		return Profile{}, err
	}

	var u struct {
		ID              string   `json:"id"`
		Login           string   `json:"login"`
		DisplayName     string   `json:"display_name"`
		DefaultEmail    string   `json:"default_email"`
		Emails          []string `json:"emails"`
		DefaultAvatarID string   `json:"default_avatar_id"`
		IsAvatarEmpty   bool     `json:"is_avatar_empty"`
	}
	if err := p.getJSON(ctx, p.apiURL+"/info?format=json", "OAuth "+tok.AccessToken, &u); err != nil {
		return Profile{}, fmt.Errorf("fetch yandex user: %w", err)
	}

	email := u.DefaultEmail
	if email == "" && len(u.Emails) > 0 {
		email = u.Emails[0]
	}
	if email == "" {
		return Profile{}, ErrNoVerifiedEmail
	}

	prof := p.profile(tok)
	prof.ExternalID = u.ID
	prof.Email = email
	prof.DisplayName = u.DisplayName
	if prof.DisplayName == "" {
		prof.DisplayName = u.Login
	}
	if u.DefaultAvatarID != "" && !u.IsAvatarEmpty {
		prof.Picture = "https://avatars.yandex.net/get-yapic/" + u.DefaultAvatarID + "/islands-200"
	}
	return prof, nil
}

package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

type facebookProvider struct {
	oauth2Flow
}

// exchange treats the short-lived user token as its own refresh token.
// Graph API issues no refresh tokens; a valid access token is traded for a
// long-lived one instead.
func (p *facebookProvider) exchange(ctx context.Context, c *OAuthConfig, code string) (*grant, error) {
	g, err := p.oauth2Flow.exchange(ctx, c, code)
	if err != nil {
		return nil, err
	}
	if g.refreshToken == "" {
		g.refreshToken = g.accessToken
	}
	return g, nil
}

func (p *facebookProvider) refresh(ctx context.Context, c *OAuthConfig, refreshToken string) (*grant, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", c.ClientID)
	params.Set("client_secret", c.ClientSecret)
	params.Set("fb_exchange_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := utils.DoJSON(p.client, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("response missing access_token")
	}

	return &grant{
		accessToken:  resp.AccessToken,
		refreshToken: resp.AccessToken,
		expiresIn:    resp.ExpiresIn,
	}, nil
}

func (p *facebookProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	endpoint := graphBaseURL + "/me?fields=" + url.QueryEscape("id,name,picture,accounts{id,name,followers_count}")

	var user transfer.FacebookUser
	if err := p.getJSON(ctx, endpoint, accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("response missing user id")
	}

	profile := &Profile{
		ID:             user.ID,
		Username:       user.Name,
		Name:           user.Name,
		ProfilePicture: user.Picture.Data.URL,
	}
	for _, page := range user.Accounts.Data {
		profile.Pages = append(profile.Pages, Page{
			ID:             page.ID,
			Name:           page.Name,
			FollowersCount: page.FollowersCount,
		})
	}
	return profile, nil
}

// instagramProvider authorizes through the Facebook dialog and resolves the
// Instagram business account linked to the user's first page.
type instagramProvider struct {
	facebookProvider
}

func (p *instagramProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	endpoint := graphBaseURL + "/me/accounts?fields=" +
		url.QueryEscape("name,instagram_business_account{id,username,name,profile_picture_url,followers_count}")

	var pages transfer.GraphPages
	if err := p.getJSON(ctx, endpoint, accessToken, &pages); err != nil {
		return nil, err
	}

	for _, page := range pages.Data {
		ig := page.InstagramBusinessAccount
		if ig == nil || ig.UserID == "" {
			continue
		}
		return &Profile{
			ID:             ig.UserID,
			Username:       ig.Username,
			Name:           ig.Name,
			ProfilePicture: ig.ProfilePicture,
			FollowersCount: ig.FollowersCount,
		}, nil
	}

	return nil, errors.New("no Instagram business account linked to any page")
}

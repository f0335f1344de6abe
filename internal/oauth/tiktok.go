package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"golang.org/x/oauth2"
)

// tiktokProvider identifies the app by client_key and talks JSON to its
// token endpoint, so only authorize goes through oauth2.
type tiktokProvider struct {
	oauth2Flow
}

func (p *tiktokProvider) authorize(c *OAuthConfig, state string) string {
	return p.config(c).AuthCodeURL(state, oauth2.SetAuthURLParam("client_key", c.ClientID))
}

func (p *tiktokProvider) exchange(ctx context.Context, c *OAuthConfig, code string) (*grant, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}
	return p.token(ctx, c, map[string]string{
		"client_key":    c.ClientID,
		"client_secret": c.ClientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  c.RedirectURI,
	})
}

func (p *tiktokProvider) refresh(ctx context.Context, c *OAuthConfig, refreshToken string) (*grant, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}
	return p.token(ctx, c, map[string]string{
		"client_key":    c.ClientID,
		"client_secret": c.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (p *tiktokProvider) token(ctx context.Context, c *OAuthConfig, payload map[string]string) (*grant, error) {
	req, err := utils.NewJSONRequest(ctx, http.MethodPost, c.TokenURL, payload)
	if err != nil {
		return nil, err
	}

	var resp transfer.TiktokTokenResponse
	if err := utils.DoJSON(p.client, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s: %s", resp.Error, resp.ErrorDescription)
	}

	tok := resp.Token()
	if tok.AccessToken == "" {
		return nil, errors.New("response missing access_token")
	}

	return &grant{
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiresIn:    tok.ExpiresIn,
	}, nil
}

func (p *tiktokProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	endpoint := tiktokAPIURL + "/user/info/?fields=open_id,display_name,avatar_url,follower_count"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp transfer.TikTokUserResponse
	if err := utils.DoJSON(p.client, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error.Failed() {
		return nil, fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}

	user := resp.Data.User
	username := user.Username
	if username == "" {
		username = user.DisplayName
	}

	return &Profile{
		ID:             user.OpenID,
		Username:       username,
		Name:           user.DisplayName,
		ProfilePicture: user.AvatarURL,
		FollowersCount: user.FollowerCount,
	}, nil
}

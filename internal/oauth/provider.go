package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"golang.org/x/oauth2"
)

// twitterCodeChallenge is the fixed PKCE value used with the plain method.
const twitterCodeChallenge = "challenge"

// grant is a provider's raw token response before normalization.
type grant struct {
	accessToken  string
	refreshToken string
	expiresIn    int64
}

type provider interface {
	authorize(c *OAuthConfig, state string) string
	exchange(ctx context.Context, c *OAuthConfig, code string) (*grant, error)
	refresh(ctx context.Context, c *OAuthConfig, refreshToken string) (*grant, error)
	fetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

func newProviders(client *http.Client) map[models.Platform]provider {
	params := func() oauth2Flow {
		return oauth2Flow{client: client, authStyle: oauth2.AuthStyleInParams}
	}

	youtube := params()
	youtube.authParams = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}

	return map[models.Platform]provider{
		models.PlatformFacebook:  &facebookProvider{oauth2Flow: params()},
		models.PlatformInstagram: &instagramProvider{facebookProvider{oauth2Flow: params()}},
		models.PlatformTwitter: &twitterProvider{oauth2Flow{
			client:    client,
			authStyle: oauth2.AuthStyleInHeader,
			authParams: []oauth2.AuthCodeOption{
				oauth2.SetAuthURLParam("code_challenge", twitterCodeChallenge),
				oauth2.SetAuthURLParam("code_challenge_method", "plain"),
			},
			exchangeParams: []oauth2.AuthCodeOption{
				oauth2.SetAuthURLParam("code_verifier", twitterCodeChallenge),
			},
		}},
		models.PlatformLinkedIn:  &linkedinProvider{params()},
		models.PlatformTikTok:    &tiktokProvider{oauth2Flow: params()},
		models.PlatformYouTube:   &youtubeProvider{youtube},
		models.PlatformPinterest: &pinterestProvider{params()},
	}
}

// oauth2Flow is the authorization-code flow shared by every provider that
// speaks standard OAuth 2.0 on its token endpoint.
type oauth2Flow struct {
	client         *http.Client
	authStyle      oauth2.AuthStyle
	authParams     []oauth2.AuthCodeOption
	exchangeParams []oauth2.AuthCodeOption
}

func (f *oauth2Flow) config(c *OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		// Joined up front so providers that expect commas get them.
		Scopes: []string{strings.Join(c.Scope, c.separator)},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: f.authStyle,
		},
	}
}

func (f *oauth2Flow) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, f.client)
}

func (f *oauth2Flow) authorize(c *OAuthConfig, state string) string {
	return f.config(c).AuthCodeURL(state, f.authParams...)
}

func (f *oauth2Flow) exchange(ctx context.Context, c *OAuthConfig, code string) (*grant, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}

	tok, err := f.config(c).Exchange(f.context(ctx), code, f.exchangeParams...)
	if err != nil {
		return nil, err
	}
	return grantFromToken(tok), nil
}

func (f *oauth2Flow) refresh(ctx context.Context, c *OAuthConfig, refreshToken string) (*grant, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}

	tok, err := f.config(c).TokenSource(f.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	return grantFromToken(tok), nil
}

func (f *oauth2Flow) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return utils.DoJSON(f.client, req, out)
}

func grantFromToken(tok *oauth2.Token) *grant {
	return &grant{
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiresIn:    expiresIn(tok),
	}
}

// expiresIn reads the wire value when present. JSON responses decode it as
// float64 and form-encoded ones as string.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	return 0
}

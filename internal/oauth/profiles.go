package oauth

import (
	"context"
	"errors"
)

type twitterProvider struct {
	oauth2Flow
}

func (p *twitterProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var resp struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
			PublicMetrics   struct {
				FollowersCount int64 `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}

	endpoint := twitterAPIURL + "/users/me?user.fields=profile_image_url,public_metrics"
	if err := p.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, errors.New("response missing user id")
	}

	return &Profile{
		ID:             resp.Data.ID,
		Username:       resp.Data.Username,
		Name:           resp.Data.Name,
		ProfilePicture: resp.Data.ProfileImageURL,
		FollowersCount: resp.Data.PublicMetrics.FollowersCount,
	}, nil
}

type linkedinProvider struct {
	oauth2Flow
}

// fetchProfile uses the OpenID userinfo endpoint. LinkedIn exposes no
// handle there, so the display name doubles as the username.
func (p *linkedinProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var resp struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	if err := p.getJSON(ctx, linkedinAPIURL+"/userinfo", accessToken, &resp); err != nil {
		return nil, err
	}
	if resp.Sub == "" {
		return nil, errors.New("response missing sub")
	}

	return &Profile{
		ID:             resp.Sub,
		Username:       resp.Name,
		Name:           resp.Name,
		ProfilePicture: resp.Picture,
	}, nil
}

type pinterestProvider struct {
	oauth2Flow
}

func (p *pinterestProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var resp struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		BusinessName  string `json:"business_name"`
		ProfileImage  string `json:"profile_image"`
		FollowerCount int64  `json:"follower_count"`
	}

	if err := p.getJSON(ctx, pinterestAPIURL+"/user_account", accessToken, &resp); err != nil {
		return nil, err
	}
	if resp.Username == "" {
		return nil, errors.New("response missing username")
	}

	id := resp.ID
	if id == "" {
		id = resp.Username
	}
	name := resp.BusinessName
	if name == "" {
		name = resp.Username
	}

	return &Profile{
		ID:             id,
		Username:       resp.Username,
		Name:           name,
		ProfilePicture: resp.ProfileImage,
		FollowersCount: resp.FollowerCount,
	}, nil
}

package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const twitterTweetsURL = "https://api.twitter.com/2/tweets"

type TwitterPublisher struct {
	platformClient
}

func NewTwitterPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *TwitterPublisher {
	return &TwitterPublisher{newPlatformClient(models.PlatformTwitter, accounts, cipher, client)}
}

func (p *TwitterPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	acc, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	req, err := utils.NewJSONRequest(ctx, http.MethodPost, twitterTweetsURL, map[string]string{"text": post.Content})
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := p.do(p.bearer(req, accessToken), &result); err != nil {
		return nil, err
	}
	if result.Data.ID == "" {
		return nil, errors.New("twitter: no tweet id returned")
	}

	return &models.PublishResult{
		PlatformPostID: result.Data.ID,
		URL:            "https://twitter.com/" + acc.PlatformUsername + "/status/" + result.Data.ID,
	}, nil
}

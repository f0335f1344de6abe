package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const graphAPIURL = "https://graph.facebook.com/v18.0"

// FacebookPublisher posts to the first page the user manages.
type FacebookPublisher struct {
	platformClient
}

func NewFacebookPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *FacebookPublisher {
	return &FacebookPublisher{newPlatformClient(models.PlatformFacebook, accounts, cipher, client)}
}

func (p *FacebookPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	_, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	page, err := p.firstPage(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("access_token", page.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/feed", graphAPIURL, page.ID)
	if image := firstMedia(post.MediaURLs, "image"); image != "" {
		endpoint = fmt.Sprintf("%s/%s/photos", graphAPIURL, page.ID)
		form.Set("url", image)
		form.Set("caption", post.Content)
	} else {
		form.Set("message", post.Content)
	}

	req, err := utils.NewFormRequest(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := p.do(req, &result); err != nil {
		return nil, err
	}

	id := result.PostID
	if id == "" {
		id = result.ID
	}
	if id == "" {
		return nil, errors.New("facebook: no post id returned")
	}

	return &models.PublishResult{
		PlatformPostID: id,
		URL:            "https://www.facebook.com/" + id,
	}, nil
}

func (p *FacebookPublisher) firstPage(ctx context.Context, accessToken string) (*transfer.GraphPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphAPIURL+"/me/accounts?fields=id,name,access_token", nil)
	if err != nil {
		return nil, err
	}

	var pages transfer.GraphPages
	if err := p.do(p.bearer(req, accessToken), &pages); err != nil {
		return nil, err
	}

	for i := range pages.Data {
		if pages.Data[i].AccessToken != "" {
			return &pages.Data[i], nil
		}
	}
	return nil, errors.New("facebook: no manageable page found")
}

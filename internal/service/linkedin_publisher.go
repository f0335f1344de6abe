package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const linkedinUGCPostsURL = "https://api.linkedin.com/v2/ugcPosts"

type LinkedInPublisher struct {
	platformClient
}

func NewLinkedInPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *LinkedInPublisher {
	return &LinkedInPublisher{newPlatformClient(models.PlatformLinkedIn, accounts, cipher, client)}
}

type linkedinShare struct {
	Author          string                          `json:"author"`
	LifecycleState  string                          `json:"lifecycleState"`
	SpecificContent map[string]linkedinShareContent `json:"specificContent"`
	Visibility      map[string]string               `json:"visibility"`
}

type linkedinShareContent struct {
	ShareCommentary    linkedinText `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
}

type linkedinText struct {
	Text string `json:"text"`
}

func (p *LinkedInPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	acc, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	share := linkedinShare{
		Author:         "urn:li:person:" + acc.PlatformUserID,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]linkedinShareContent{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    linkedinText{Text: post.Content},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	req, err := utils.NewJSONRequest(ctx, http.MethodPost, linkedinUGCPostsURL, share)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	var result struct {
		ID string `json:"id"`
	}
	if err := p.do(p.bearer(req, accessToken), &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, errors.New("linkedin: no share id returned")
	}

	return &models.PublishResult{
		PlatformPostID: result.ID,
		URL:            "https://www.linkedin.com/feed/update/" + result.ID,
	}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

// InstagramPublisher creates a media container on the business account and
// publishes it. Carousels are built when the post carries several images.
type InstagramPublisher struct {
	platformClient
}

func NewInstagramPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *InstagramPublisher {
	return &InstagramPublisher{newPlatformClient(models.PlatformInstagram, accounts, cipher, client)}
}

func (p *InstagramPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	acc, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, u := range post.MediaURLs {
		if publisher.MediaKind(u) == "image" {
			images = append(images, u)
		}
	}

	var containerID string
	switch {
	case len(images) > 1:
		containerID, err = p.carousel(ctx, acc.PlatformUserID, post.Content, images, accessToken)
	case len(images) == 1:
		containerID, err = p.container(ctx, acc.PlatformUserID, accessToken, map[string]any{
			"image_url": images[0],
			"caption":   post.Content,
		})
	default:
		video := firstMedia(post.MediaURLs, "video")
		if video == "" {
			return nil, errors.New("instagram: a post needs at least one image or video")
		}
		containerID, err = p.container(ctx, acc.PlatformUserID, accessToken, map[string]any{
			"media_type": "REELS",
			"video_url":  video,
			"caption":    post.Content,
		})
	}
	if err != nil {
		return nil, err
	}

	mediaID, err := p.publishContainer(ctx, acc.PlatformUserID, containerID, accessToken)
	if err != nil {
		return nil, err
	}

	return &models.PublishResult{PlatformPostID: mediaID}, nil
}

func (p *InstagramPublisher) carousel(ctx context.Context, igUserID, caption string, images []string, accessToken string) (string, error) {
	children := make([]string, 0, len(images))
	for _, image := range images {
		id, err := p.container(ctx, igUserID, accessToken, map[string]any{
			"image_url":        image,
			"is_carousel_item": true,
		})
		if err != nil {
			return "", err
		}
		children = append(children, id)
	}

	return p.container(ctx, igUserID, accessToken, map[string]any{
		"media_type": "CAROUSEL",
		"caption":    caption,
		"children":   children,
	})
}

func (p *InstagramPublisher) container(ctx context.Context, igUserID, accessToken string, payload map[string]any) (string, error) {
	payload["access_token"] = accessToken
	return p.postGraph(ctx, fmt.Sprintf("%s/%s/media", graphAPIURL, igUserID), payload)
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, igUserID, containerID, accessToken string) (string, error) {
	return p.postGraph(ctx, fmt.Sprintf("%s/%s/media_publish", graphAPIURL, igUserID), map[string]any{
		"creation_id":  containerID,
		"access_token": accessToken,
	})
}

func (p *InstagramPublisher) postGraph(ctx context.Context, endpoint string, payload map[string]any) (string, error) {
	req, err := utils.NewJSONRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	var result transfer.GraphID
	if err := p.do(req, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("instagram: no media id returned")
	}
	return result.ID, nil
}

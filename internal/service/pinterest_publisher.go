package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const pinterestAPIURL = "https://api.pinterest.com/v5"

// PinterestPublisher pins the post's first image to the user's first board.
type PinterestPublisher struct {
	platformClient
}

func NewPinterestPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *PinterestPublisher {
	return &PinterestPublisher{newPlatformClient(models.PlatformPinterest, accounts, cipher, client)}
}

type pinMediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

type pinRequest struct {
	BoardID     string         `json:"board_id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	MediaSource pinMediaSource `json:"media_source"`
}

func (p *PinterestPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	_, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	image := publisher.FirstMedia(post.MediaURLs, "image")
	if image == "" {
		return nil, errors.New("pinterest: post has no image")
	}

	boardID, err := p.firstBoard(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	req, err := utils.NewJSONRequest(ctx, http.MethodPost, pinterestAPIURL+"/pins", pinRequest{
		BoardID:     boardID,
		Title:       post.Title,
		Description: post.Content,
		MediaSource: pinMediaSource{SourceType: "image_url", URL: image},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := p.do(p.bearer(req, accessToken), &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, errors.New("pinterest: no pin id returned")
	}

	return &models.PublishResult{
		PlatformPostID: result.ID,
		URL:            "https://www.pinterest.com/pin/" + result.ID,
	}, nil
}

func (p *PinterestPublisher) firstBoard(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pinterestAPIURL+"/boards?page_size=1", nil)
	if err != nil {
		return "", err
	}

	var boards struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := p.do(p.bearer(req, accessToken), &boards); err != nil {
		return "", err
	}
	if len(boards.Items) == 0 {
		return "", errors.New("pinterest: no board to pin to")
	}
	return boards.Items[0].ID, nil
}

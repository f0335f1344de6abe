package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeMaxTitleRunes = 100

// YoutubePublisher streams the post's first video from its URL straight into
// videos.insert without touching disk.
type YoutubePublisher struct {
	platformClient
}

func NewYoutubePublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *YoutubePublisher {
	return &YoutubePublisher{newPlatformClient(models.PlatformYouTube, accounts, cipher, client)}
}

func (p *YoutubePublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	_, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	videoURL := publisher.FirstMedia(post.MediaURLs, "video")
	if videoURL == "" {
		return nil, errors.New("youtube: post has no video")
	}

	res, err := p.breaker.Execute(func() (any, error) {
		return p.upload(ctx, post, videoURL, accessToken)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube: %w", err)
	}

	id := res.(string)
	return &models.PublishResult{
		PlatformPostID: id,
		URL:            "https://youtu.be/" + id,
	}, nil
}

func (p *YoutubePublisher) upload(ctx context.Context, post *models.Post, videoURL, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error downloading video: %w", &utils.HTTPError{StatusCode: resp.StatusCode})
	}

	authCtx := context.WithValue(ctx, oauth2.HTTPClient, p.client)
	client := oauth2.NewClient(authCtx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", err
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       videoTitle(post),
			Description: post.Content,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(resp.Body).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return uploaded.Id, nil
}

// videoTitle prefers the post title and falls back to the first line of the
// content, cut to YouTube's title limit.
func videoTitle(post *models.Post) string {
	title := strings.TrimSpace(post.Title)
	if title == "" {
		title, _, _ = strings.Cut(strings.TrimSpace(post.Content), "\n")
	}
	if r := []rune(title); len(r) > youtubeMaxTitleRunes {
		title = string(r[:youtubeMaxTitleRunes])
	}
	if title == "" {
		title = "Untitled"
	}
	return title
}

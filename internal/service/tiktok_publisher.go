package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const (
	tiktokVideoInitURL  = "https://open.tiktokapis.com/v2/post/publish/video/init/"
	tiktokCreatorURL    = "https://open.tiktokapis.com/v2/post/publish/creator_info/query/"
	tiktokMaxTitleRunes = 2200
)

// TiktokPublisher asks TikTok to pull the post's first video from its URL.
type TiktokPublisher struct {
	platformClient
}

func NewTiktokPublisher(accounts repository.SocialAccountRepository, cipher utils.TokenCipher, client *http.Client) *TiktokPublisher {
	return &TiktokPublisher{newPlatformClient(models.PlatformTikTok, accounts, cipher, client)}
}

func (p *TiktokPublisher) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	_, accessToken, err := p.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	video := publisher.FirstMedia(post.MediaURLs, "video")
	if video == "" {
		return nil, errors.New("tiktok: post has no video")
	}

	privacy, err := p.privacyLevel(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	title := post.Content
	if utf8.RuneCountInString(title) > tiktokMaxTitleRunes {
		title = string([]rune(title)[:tiktokMaxTitleRunes])
	}

	upload := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:                 title,
			PrivacyLevel:          privacy,
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: video,
		},
	}

	req, err := utils.NewJSONRequest(ctx, http.MethodPost, tiktokVideoInitURL, upload)
	if err != nil {
		return nil, err
	}

	var result transfer.TikTokUploadResponse
	if err := p.do(p.bearer(req, accessToken), &result); err != nil {
		return nil, err
	}
	if result.Error.Failed() {
		return nil, fmt.Errorf("tiktok: %s: %s", result.Error.Code, result.Error.Message)
	}
	if result.Data.PublishID == "" {
		return nil, errors.New("tiktok: no publish id returned")
	}

	return &models.PublishResult{PlatformPostID: result.Data.PublishID}, nil
}

// privacyLevel picks the most public option the creator allows.
func (p *TiktokPublisher) privacyLevel(ctx context.Context, accessToken string) (string, error) {
	req, err := utils.NewJSONRequest(ctx, http.MethodPost, tiktokCreatorURL, map[string]string{})
	if err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			PrivacyLevelOptions []string `json:"privacy_level_options"`
		} `json:"data"`
		Error transfer.TiktokError `json:"error"`
	}
	if err := p.do(p.bearer(req, accessToken), &result); err != nil {
		return "", err
	}
	if result.Error.Failed() {
		return "", fmt.Errorf("tiktok: %s: %s", result.Error.Code, result.Error.Message)
	}

	preferred := []string{"PUBLIC_TO_EVERYONE", "MUTUAL_FOLLOW_FRIENDS", "FOLLOWER_OF_CREATOR", "SELF_ONLY"}
	for _, want := range preferred {
		for _, got := range result.Data.PrivacyLevelOptions {
			if got == want {
				return want, nil
			}
		}
	}
	return "SELF_ONLY", nil
}

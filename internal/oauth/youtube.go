package oauth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type youtubeProvider struct {
	oauth2Flow
}

func (p *youtubeProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	client := oauth2.NewClient(p.context(ctx), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, errors.New("no YouTube channel for this account")
	}

	channel := resp.Items[0]
	profile := &Profile{ID: channel.Id}

	if s := channel.Snippet; s != nil {
		profile.Name = s.Title
		profile.Username = s.CustomUrl
		if profile.Username == "" {
			profile.Username = s.Title
		}
		if s.Thumbnails != nil && s.Thumbnails.Default != nil {
			profile.ProfilePicture = s.Thumbnails.Default.Url
		}
	}
	if channel.Statistics != nil {
		profile.FollowersCount = int64(channel.Statistics.SubscriberCount)
	}

	return profile, nil
}

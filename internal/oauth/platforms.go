package oauth

import (
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
)

const (
	graphBaseURL     = "https://graph.facebook.com/v18.0"
	twitterAPIURL    = "https://api.twitter.com/2"
	linkedinAPIURL   = "https://api.linkedin.com/v2"
	tiktokAPIURL     = "https://open.tiktokapis.com/v2"
	pinterestAPIURL  = "https://api.pinterest.com/v5"
	callbackPathFmt  = "%s/api/social/oauth/%s/callback"
	defaultExpiresIn = 3600
)

type platformSpec struct {
	authURL     string
	tokenURL    string
	scope       []string
	separator   string
	credentials func(cfg *config.Config) config.Credentials
}

var platformSpecs = map[models.Platform]platformSpec{
	models.PlatformFacebook: {
		authURL:     "https://www.facebook.com/v18.0/dialog/oauth",
		tokenURL:    graphBaseURL + "/oauth/access_token",
		scope:       []string{"pages_manage_posts", "pages_read_engagement", "pages_show_list", "public_profile"},
		separator:   ",",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.Facebook },
	},
	models.PlatformInstagram: {
		authURL:   "https://www.facebook.com/v18.0/dialog/oauth",
		tokenURL:  graphBaseURL + "/oauth/access_token",
		scope:     []string{"instagram_basic", "instagram_content_publish", "pages_show_list", "business_management"},
		separator: ",",
		credentials: func(cfg *config.Config) config.Credentials {
			c := cfg.Instagram
			if c.ClientID == "" {
				c.ClientID = cfg.Facebook.ClientID
			}
			if c.ClientSecret == "" {
				c.ClientSecret = cfg.Facebook.ClientSecret
			}
			return c
		},
	},
	models.PlatformTwitter: {
		authURL:     "https://twitter.com/i/oauth2/authorize",
		tokenURL:    "https://api.twitter.com/2/oauth2/token",
		scope:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
		separator:   " ",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.Twitter },
	},
	models.PlatformLinkedIn: {
		authURL:     "https://www.linkedin.com/oauth/v2/authorization",
		tokenURL:    "https://www.linkedin.com/oauth/v2/accessToken",
		scope:       []string{"openid", "profile", "w_member_social"},
		separator:   " ",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.LinkedIn },
	},
	models.PlatformTikTok: {
		authURL:     "https://www.tiktok.com/v2/auth/authorize/",
		tokenURL:    tiktokAPIURL + "/oauth/token/",
		scope:       []string{"user.info.basic", "user.info.stats", "video.publish", "video.upload"},
		separator:   ",",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.TikTok },
	},
	models.PlatformYouTube: {
		authURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:    "https://oauth2.googleapis.com/token",
		scope:       []string{"https://www.googleapis.com/auth/youtube.upload", "https://www.googleapis.com/auth/youtube.readonly"},
		separator:   " ",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.YouTube },
	},
	models.PlatformPinterest: {
		authURL:     "https://www.pinterest.com/oauth/",
		tokenURL:    pinterestAPIURL + "/oauth/token",
		scope:       []string{"boards:read", "pins:read", "pins:write", "user_accounts:read"},
		separator:   ",",
		credentials: func(cfg *config.Config) config.Credentials { return cfg.Pinterest },
	},
}

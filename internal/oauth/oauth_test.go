package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// rewriteTransport sends every request to target while remembering the URL
// the caller asked for.
type rewriteTransport struct {
	target *url.URL

	mu   sync.Mutex
	seen []url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.seen = append(t.seen, *req.URL)
	t.mu.Unlock()

	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func (t *rewriteTransport) requested() []url.URL {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]url.URL(nil), t.seen...)
}

func fullConfig() config.Config {
	return config.Config{
		Facebook:         config.Credentials{ClientID: "fb-id", ClientSecret: "fb-secret"},
		Twitter:          config.Credentials{ClientID: "tw-id", ClientSecret: "tw-secret"},
		LinkedIn:         config.Credentials{ClientID: "li-id", ClientSecret: "li-secret"},
		TikTok:           config.Credentials{ClientID: "tt-key", ClientSecret: "tt-secret"},
		YouTube:          config.Credentials{ClientID: "yt-id", ClientSecret: "yt-secret"},
		Pinterest:        config.Credentials{ClientID: "pin-id", ClientSecret: "pin-secret"},
		FrontendURL:      "https://app.example.com/",
		OAuthHTTPTimeout: 5 * time.Second,
	}
}

func newTestService(t *testing.T, cfg config.Config, h http.Handler) (*oauthService, *rewriteTransport) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	rt := &rewriteTransport{target: target}
	svc := newService(cfg, &http.Client{Transport: rt}, clockwork.NewFakeClockAt(testNow))
	return svc, rt
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGetOAuthConfig(t *testing.T) {
	svc := newService(fullConfig(), nil, clockwork.NewFakeClockAt(testNow))

	c, ok := svc.GetOAuthConfig(models.PlatformLinkedIn)
	require.True(t, ok)
	assert.Equal(t, "li-id", c.ClientID)
	assert.Equal(t, "https://app.example.com/api/social/oauth/linkedin/callback", c.RedirectURI)
	assert.Equal(t, "https://www.linkedin.com/oauth/v2/authorization", c.AuthURL)
	assert.Contains(t, c.Scope, "w_member_social")

	_, ok = svc.GetOAuthConfig(models.Platform("myspace"))
	assert.False(t, ok)
}

func TestGetOAuthConfig_InstagramFallsBackToFacebook(t *testing.T) {
	cfg := fullConfig()
	svc := newService(cfg, nil, clockwork.NewFakeClockAt(testNow))

	c, ok := svc.GetOAuthConfig(models.PlatformInstagram)
	require.True(t, ok)
	assert.Equal(t, "fb-id", c.ClientID)
	assert.Equal(t, "fb-secret", c.ClientSecret)

	cfg.Instagram = config.Credentials{ClientID: "ig-id"}
	svc = newService(cfg, nil, clockwork.NewFakeClockAt(testNow))

	c, ok = svc.GetOAuthConfig(models.PlatformInstagram)
	require.True(t, ok)
	assert.Equal(t, "ig-id", c.ClientID)
	assert.Equal(t, "fb-secret", c.ClientSecret)
}

func TestGetOAuthConfig_DefaultFrontendURL(t *testing.T) {
	cfg := fullConfig()
	cfg.FrontendURL = ""
	svc := newService(cfg, nil, clockwork.NewFakeClockAt(testNow))

	c, ok := svc.GetOAuthConfig(models.PlatformTwitter)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:5173/api/social/oauth/twitter/callback", c.RedirectURI)
}

func TestGetOAuthConfig_Unconfigured(t *testing.T) {
	svc := newService(config.Config{}, nil, clockwork.NewFakeClockAt(testNow))

	for _, p := range models.Platforms {
		_, ok := svc.GetOAuthConfig(p)
		assert.False(t, ok, p)
		assert.False(t, svc.ValidatePlatformConfig(p), p)
	}
	assert.Empty(t, svc.ConfiguredPlatforms())
}

func TestConfiguredPlatforms_StableOrder(t *testing.T) {
	cfg := config.Config{
		Pinterest: config.Credentials{ClientID: "a", ClientSecret: "b"},
		Twitter:   config.Credentials{ClientID: "a", ClientSecret: "b"},
		Facebook:  config.Credentials{ClientID: "a", ClientSecret: "b"},
	}
	svc := newService(cfg, nil, clockwork.NewFakeClockAt(testNow))

	assert.Equal(t, []models.Platform{
		models.PlatformFacebook,
		models.PlatformInstagram,
		models.PlatformTwitter,
		models.PlatformPinterest,
	}, svc.ConfiguredPlatforms())
}

func TestGetAuthorizationURL(t *testing.T) {
	svc := newService(fullConfig(), nil, clockwork.NewFakeClockAt(testNow))

	tests := []struct {
		platform models.Platform
		base     string
		want     map[string]string
		absent   []string
	}{
		{
			platform: models.PlatformFacebook,
			base:     "https://www.facebook.com/v18.0/dialog/oauth",
			want: map[string]string{
				"client_id": "fb-id",
				"scope":     "pages_manage_posts,pages_read_engagement,pages_show_list,public_profile",
			},
			absent: []string{"code_challenge", "access_type"},
		},
		{
			platform: models.PlatformTwitter,
			base:     "https://twitter.com/i/oauth2/authorize",
			want: map[string]string{
				"client_id":             "tw-id",
				"scope":                 "tweet.read tweet.write users.read offline.access",
				"code_challenge":        "challenge",
				"code_challenge_method": "plain",
			},
		},
		{
			platform: models.PlatformYouTube,
			base:     "https://accounts.google.com/o/oauth2/v2/auth",
			want: map[string]string{
				"access_type": "offline",
				"prompt":      "consent",
			},
		},
		{
			platform: models.PlatformTikTok,
			base:     "https://www.tiktok.com/v2/auth/authorize/",
			want: map[string]string{
				"client_key": "tt-key",
				"scope":      "user.info.basic,user.info.stats,video.publish,video.upload",
			},
		},
		{
			platform: models.PlatformPinterest,
			base:     "https://www.pinterest.com/oauth/",
			want: map[string]string{
				"scope": "boards:read,pins:read,pins:write,user_accounts:read",
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			raw, ok := svc.GetAuthorizationURL(tt.platform, "state-123")
			require.True(t, ok)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.base, u.Scheme+"://"+u.Host+u.Path)

			q := u.Query()
			assert.Equal(t, "state-123", q.Get("state"))
			assert.Equal(t, "code", q.Get("response_type"))
			assert.Equal(t, "https://app.example.com/api/social/oauth/"+string(tt.platform)+"/callback", q.Get("redirect_uri"))
			for k, v := range tt.want {
				assert.Equal(t, v, q.Get(k), k)
			}
			for _, k := range tt.absent {
				assert.False(t, q.Has(k), k)
			}
		})
	}
}

func TestGetAuthorizationURL_Unavailable(t *testing.T) {
	svc := newService(config.Config{}, nil, clockwork.NewFakeClockAt(testNow))

	u, ok := svc.GetAuthorizationURL(models.PlatformTwitter, "s")
	assert.False(t, ok)
	assert.Empty(t, u)

	u, ok = svc.GetAuthorizationURL(models.Platform("unknown"), "s")
	assert.False(t, ok)
	assert.Empty(t, u)
}

func TestExchangeCodeForToken_NotConfigured(t *testing.T) {
	svc := newService(config.Config{}, nil, clockwork.NewFakeClockAt(testNow))

	_, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformLinkedIn, "code")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
	assert.Equal(t, "OAuth not configured for platform: linkedin", err.Error())
}

func TestExchangeCodeForToken_FormPost(t *testing.T) {
	svc, rt := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/v2/accessToken", r.URL.Path)
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "li-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "li-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://app.example.com/api/social/oauth/linkedin/callback", r.PostForm.Get("redirect_uri"))

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "li-access",
			"refresh_token": "li-refresh",
			"expires_in":    5184000,
		})
	}))

	tokens, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformLinkedIn, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "li-access", tokens.AccessToken)
	assert.Equal(t, "li-refresh", tokens.RefreshToken)
	assert.Equal(t, int64(5184000), tokens.ExpiresIn)
	assert.Equal(t, testNow.Add(5184000*time.Second), tokens.ExpiresAt)

	seen := rt.requested()
	require.Len(t, seen, 1)
	assert.Equal(t, "www.linkedin.com", seen[0].Host)
}

func TestExchangeCodeForToken_TwitterBasicAuthWithVerifier(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "tw-id", user)
		assert.Equal(t, "tw-secret", pass)
		assert.Equal(t, "challenge", r.PostForm.Get("code_verifier"))
		assert.Empty(t, r.PostForm.Get("client_secret"))

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "tw-access",
			"refresh_token": "tw-refresh",
			"expires_in":    7200,
			"token_type":    "bearer",
		})
	}))

	tokens, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformTwitter, "c")
	require.NoError(t, err)
	assert.Equal(t, "tw-access", tokens.AccessToken)
	assert.Equal(t, int64(7200), tokens.ExpiresIn)
}

func TestExchangeCodeForToken_TikTokJSON(t *testing.T) {
	svc, rt := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/oauth/token/", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tt-key", body["client_key"])
		assert.Equal(t, "authorization_code", body["grant_type"])
		assert.Equal(t, "tt-code", body["code"])

		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"access_token":  "tt-access",
				"refresh_token": "tt-refresh",
				"expires_in":    86400,
				"open_id":       "open-1",
			},
		})
	}))

	tokens, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformTikTok, "tt-code")
	require.NoError(t, err)
	assert.Equal(t, "tt-access", tokens.AccessToken)
	assert.Equal(t, "tt-refresh", tokens.RefreshToken)
	assert.Equal(t, testNow.Add(24*time.Hour), tokens.ExpiresAt)
	assert.Equal(t, "open.tiktokapis.com", rt.requested()[0].Host)
}

func TestExchangeCodeForToken_FacebookUsesAccessAsRefresh(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "fb-access", "token_type": "bearer"})
	}))

	tokens, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformFacebook, "c")
	require.NoError(t, err)
	assert.Equal(t, "fb-access", tokens.RefreshToken)
	assert.Equal(t, int64(defaultExpiresIn), tokens.ExpiresIn)
	assert.Equal(t, testNow.Add(time.Hour), tokens.ExpiresAt)
}

func TestExchangeCodeForToken_ProviderError(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	}))

	for _, p := range []models.Platform{models.PlatformPinterest, models.PlatformTikTok} {
		_, err := svc.ExchangeCodeForToken(context.Background(), p, "bad")
		require.Error(t, err, p)
		assert.True(t, errors.Is(err, apperrors.ErrTokenExchangeFailed), p)
		assert.Contains(t, err.Error(), "Token exchange failed")
		assert.Contains(t, err.Error(), "invalid_grant")
	}
}

func TestExchangeCodeForToken_Timeout(t *testing.T) {
	cfg := fullConfig()
	cfg.OAuthHTTPTimeout = 50 * time.Millisecond

	release := make(chan struct{})
	defer close(release)

	svc, _ := newTestService(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	_, err := svc.ExchangeCodeForToken(context.Background(), models.PlatformLinkedIn, "c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExchangeFailed))
}

func TestRefreshAccessToken_KeepsPreviousRefreshToken(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))

		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new-access", "expires_in": 600})
	}))

	tokens, err := svc.RefreshAccessToken(context.Background(), models.PlatformPinterest, "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	assert.Equal(t, "old-refresh", tokens.RefreshToken)
	assert.Equal(t, testNow.Add(10*time.Minute), tokens.ExpiresAt)
}

func TestRefreshAccessToken_RotatedRefreshToken(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "tw-id", user)
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "a2",
			"refresh_token": "r2",
			"expires_in":    7200,
		})
	}))

	tokens, err := svc.RefreshAccessToken(context.Background(), models.PlatformTwitter, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r2", tokens.RefreshToken)
}

func TestRefreshAccessToken_FacebookExchangesLongLivedToken(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v18.0/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "fb-id", q.Get("client_id"))
		assert.Equal(t, "fb-secret", q.Get("client_secret"))
		assert.Equal(t, "short-lived", q.Get("fb_exchange_token"))

		writeJSON(w, http.StatusOK, map[string]any{"access_token": "long-lived", "expires_in": 5183944})
	}))

	tokens, err := svc.RefreshAccessToken(context.Background(), models.PlatformFacebook, "short-lived")
	require.NoError(t, err)
	assert.Equal(t, "long-lived", tokens.AccessToken)
	assert.Equal(t, "long-lived", tokens.RefreshToken)
	assert.Equal(t, int64(5183944), tokens.ExpiresIn)
}

func TestRefreshAccessToken_TikTok(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh_token", body["grant_type"])
		assert.Equal(t, "tt-r", body["refresh_token"])

		writeJSON(w, http.StatusOK, map[string]any{"access_token": "tt-a2", "expires_in": 86400})
	}))

	tokens, err := svc.RefreshAccessToken(context.Background(), models.PlatformTikTok, "tt-r")
	require.NoError(t, err)
	assert.Equal(t, "tt-a2", tokens.AccessToken)
	assert.Equal(t, "tt-r", tokens.RefreshToken)
}

func TestRefreshAccessToken_Errors(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_token"})
	}))

	_, err := svc.RefreshAccessToken(context.Background(), models.PlatformYouTube, "r")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRefreshFailed))
	assert.Contains(t, err.Error(), "Token refresh failed")

	_, err = svc.RefreshAccessToken(context.Background(), models.PlatformYouTube, "")
	assert.True(t, errors.Is(err, apperrors.ErrTokenRefreshFailed))

	unconfigured := newService(config.Config{}, nil, clockwork.NewFakeClockAt(testNow))
	_, err = unconfigured.RefreshAccessToken(context.Background(), models.PlatformYouTube, "r")
	assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
}

func profileServer(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id": "tw-1", "name": "Tweeter", "username": "tweeter",
			"profile_image_url": "https://img/tw.png",
			"public_metrics":    map[string]any{"followers_count": 12},
		}})
	})
	mux.HandleFunc("/v18.0/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "fb-1", "name": "Face Book",
			"picture":  map[string]any{"data": map[string]any{"url": "https://img/fb.png"}},
			"accounts": map[string]any{"data": []any{map[string]any{"id": "page-1", "name": "Page", "followers_count": 99}}},
		})
	})
	mux.HandleFunc("/v18.0/me/accounts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{
			map[string]any{"name": "No IG"},
			map[string]any{"name": "Page", "instagram_business_account": map[string]any{
				"id": "ig-1", "username": "insta", "name": "Insta", "profile_picture_url": "https://img/ig.png", "followers_count": 7,
			}},
		}})
	})
	mux.HandleFunc("/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sub": "li-1", "name": "Linked In", "picture": "https://img/li.png"})
	})
	mux.HandleFunc("/v2/user/info/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Query().Get("fields"), "open_id")
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  map[string]any{"user": map[string]any{"open_id": "tt-1", "display_name": "Tok", "avatar_url": "https://img/tt.png", "follower_count": 3}},
			"error": map[string]any{"code": "ok"},
		})
	})
	mux.HandleFunc("/v5/user_account", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"username": "pinner", "profile_image": "https://img/pin.png", "follower_count": 5})
	})
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{map[string]any{
			"id": "UC-1",
			"snippet": map[string]any{
				"title": "Channel", "customUrl": "@channel",
				"thumbnails": map[string]any{"default": map[string]any{"url": "https://img/yt.png"}},
			},
			"statistics": map[string]any{"subscriberCount": "42"},
		}}})
	})
	return mux
}

func TestFetchUserProfile(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), profileServer(t))

	tests := []struct {
		platform models.Platform
		want     Profile
	}{
		{models.PlatformTwitter, Profile{ID: "tw-1", Username: "tweeter", Name: "Tweeter", ProfilePicture: "https://img/tw.png", FollowersCount: 12}},
		{models.PlatformFacebook, Profile{ID: "fb-1", Username: "Face Book", Name: "Face Book", ProfilePicture: "https://img/fb.png",
			Pages: []Page{{ID: "page-1", Name: "Page", FollowersCount: 99}}}},
		{models.PlatformInstagram, Profile{ID: "ig-1", Username: "insta", Name: "Insta", ProfilePicture: "https://img/ig.png", FollowersCount: 7}},
		{models.PlatformLinkedIn, Profile{ID: "li-1", Username: "Linked In", Name: "Linked In", ProfilePicture: "https://img/li.png"}},
		{models.PlatformTikTok, Profile{ID: "tt-1", Username: "Tok", Name: "Tok", ProfilePicture: "https://img/tt.png", FollowersCount: 3}},
		{models.PlatformPinterest, Profile{ID: "pinner", Username: "pinner", Name: "pinner", ProfilePicture: "https://img/pin.png", FollowersCount: 5}},
		{models.PlatformYouTube, Profile{ID: "UC-1", Username: "@channel", Name: "Channel", ProfilePicture: "https://img/yt.png", FollowersCount: 42}},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			got, err := svc.FetchUserProfile(context.Background(), tt.platform, "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFetchUserProfile_Errors(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "expired"})
	}))

	_, err := svc.FetchUserProfile(context.Background(), models.PlatformTwitter, "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProfileFetchFailed))
	assert.Contains(t, err.Error(), "Profile fetch failed")

	_, err = svc.FetchUserProfile(context.Background(), models.Platform("friendster"), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
}

func TestFetchUserProfile_InstagramWithoutBusinessAccount(t *testing.T) {
	svc, _ := newTestService(t, fullConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{map[string]any{"name": "Page"}}})
	}))

	_, err := svc.FetchUserProfile(context.Background(), models.PlatformInstagram, "tok")
	assert.True(t, errors.Is(err, apperrors.ErrProfileFetchFailed))
}

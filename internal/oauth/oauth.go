// Package oauth normalizes the OAuth flows of the supported social platforms
// behind one contract: configuration lookup, authorization URLs, code
// exchange, token refresh and profile lookup.
package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/metrics"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

// OAuthConfig is built from process configuration on every lookup and never
// mutated afterwards.
type OAuthConfig struct {
	Platform     models.Platform
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        []string
	AuthURL      string
	TokenURL     string

	separator string
}

// Tokens is a normalized token response. ExpiresAt is computed when the
// response is received.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	ExpiresAt    time.Time
}

type Page struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FollowersCount int64  `json:"followers_count,omitempty"`
}

// Profile is the provider-agnostic view of the connected account.
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	FollowersCount int64  `json:"followers_count,omitempty"`
	Pages          []Page `json:"pages,omitempty"`
}

type Service interface {
	GetOAuthConfig(platform models.Platform) (*OAuthConfig, bool)
	GetAuthorizationURL(platform models.Platform, state string) (string, bool)
	ExchangeCodeForToken(ctx context.Context, platform models.Platform, code string) (*Tokens, error)
	RefreshAccessToken(ctx context.Context, platform models.Platform, refreshToken string) (*Tokens, error)
	FetchUserProfile(ctx context.Context, platform models.Platform, accessToken string) (*Profile, error)
	ValidatePlatformConfig(platform models.Platform) bool
	ConfiguredPlatforms() []models.Platform
}

type oauthService struct {
	cfg       config.Config
	timeout   time.Duration
	clock     clockwork.Clock
	providers map[models.Platform]provider
}

// NewService builds the OAuth layer. A nil client gets one bounded by
// cfg.OAuthHTTPTimeout.
func NewService(cfg config.Config, client *http.Client) Service {
	return newService(cfg, client, clockwork.NewRealClock())
}

func newService(cfg config.Config, client *http.Client, clock clockwork.Clock) *oauthService {
	if client == nil {
		client = &http.Client{Timeout: cfg.OAuthHTTPTimeout}
	}
	return &oauthService{
		cfg:       cfg,
		timeout:   cfg.OAuthHTTPTimeout,
		clock:     clock,
		providers: newProviders(client),
	}
}

func (s *oauthService) GetOAuthConfig(platform models.Platform) (*OAuthConfig, bool) {
	spec, ok := platformSpecs[platform]
	if !ok {
		return nil, false
	}

	creds := spec.credentials(&s.cfg)
	if !creds.Configured() {
		return nil, false
	}

	frontendURL := s.cfg.FrontendBaseURL()

	return &OAuthConfig{
		Platform:     platform,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURI:  fmt.Sprintf(callbackPathFmt, frontendURL, platform),
		Scope:        append([]string(nil), spec.scope...),
		AuthURL:      spec.authURL,
		TokenURL:     spec.tokenURL,
		separator:    spec.separator,
	}, true
}

// GetAuthorizationURL returns false for unknown or unconfigured platforms
// instead of failing, so callers can use it to decide what to offer.
func (s *oauthService) GetAuthorizationURL(platform models.Platform, state string) (string, bool) {
	c, ok := s.GetOAuthConfig(platform)
	if !ok {
		return "", false
	}
	return s.providers[platform].authorize(c, state), true
}

func (s *oauthService) ExchangeCodeForToken(ctx context.Context, platform models.Platform, code string) (*Tokens, error) {
	c, err := s.requireConfig(platform)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	g, err := s.providers[platform].exchange(ctx, c, code)
	s.record(platform, "exchange", err)
	if err != nil {
		slog.Warn("token exchange failed", "platform", platform, "error", err)
		return nil, apperrors.Wrap(apperrors.KindTokenExchangeFailed, "Token exchange failed", err)
	}

	return s.normalize(g, ""), nil
}

// RefreshAccessToken keeps refreshToken when the provider does not rotate it.
func (s *oauthService) RefreshAccessToken(ctx context.Context, platform models.Platform, refreshToken string) (*Tokens, error) {
	c, err := s.requireConfig(platform)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	g, err := s.providers[platform].refresh(ctx, c, refreshToken)
	s.record(platform, "refresh", err)
	if err != nil {
		slog.Warn("token refresh failed", "platform", platform, "error", err)
		return nil, apperrors.Wrap(apperrors.KindTokenRefreshFailed, "Token refresh failed", err)
	}

	return s.normalize(g, refreshToken), nil
}

func (s *oauthService) FetchUserProfile(ctx context.Context, platform models.Platform, accessToken string) (*Profile, error) {
	p, ok := s.providers[platform]
	if !ok {
		return nil, notConfigured(platform)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := p.fetchProfile(ctx, accessToken)
	s.record(platform, "profile", err)
	if err != nil {
		slog.Warn("profile fetch failed", "platform", platform, "error", err)
		return nil, apperrors.Wrap(apperrors.KindProfileFetchFailed, "Profile fetch failed", err)
	}
	return profile, nil
}

func (s *oauthService) ValidatePlatformConfig(platform models.Platform) bool {
	_, ok := s.GetOAuthConfig(platform)
	return ok
}

func (s *oauthService) ConfiguredPlatforms() []models.Platform {
	var out []models.Platform
	for _, p := range models.Platforms {
		if s.ValidatePlatformConfig(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *oauthService) requireConfig(platform models.Platform) (*OAuthConfig, error) {
	c, ok := s.GetOAuthConfig(platform)
	if !ok {
		return nil, notConfigured(platform)
	}
	return c, nil
}

func (s *oauthService) normalize(g *grant, previousRefresh string) *Tokens {
	expiresIn := g.expiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	refresh := g.refreshToken
	if refresh == "" {
		refresh = previousRefresh
	}

	return &Tokens{
		AccessToken:  g.accessToken,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		ExpiresAt:    s.clock.Now().Add(time.Duration(expiresIn) * time.Second),
	}
}

func (s *oauthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *oauthService) record(platform models.Platform, operation string, err error) {
	metrics.OAuthRequestsTotal.WithLabelValues(string(platform), operation, metrics.Outcome(err)).Inc()
}

func notConfigured(platform models.Platform) error {
	return apperrors.Newf(apperrors.KindNotConfigured, "OAuth not configured for platform: %s", platform)
}

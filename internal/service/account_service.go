package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/oauth"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
	"github.com/maheshrc27/crosspost/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	stateTokenDuration = 10 * time.Minute

	tiktokRevokeURL = "https://open.tiktokapis.com/v2/oauth/revoke/"
	googleRevokeURL = "https://oauth2.googleapis.com/revoke"
)

type AccountService interface {
	GetAuthURL(ctx context.Context, userID string, platform models.Platform) (string, error)
	Callback(ctx context.Context, platform models.Platform, code, state string) (*models.SocialAccount, error)
	List(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID string) error
	RefreshAccount(ctx context.Context, acc *models.SocialAccount) error
	ConfiguredPlatforms() []models.Platform
}

type accountService struct {
	cfg      config.Config
	oauth    oauth.Service
	accounts repository.SocialAccountRepository
	cipher   utils.TokenCipher
	client   *http.Client
}

func NewAccountService(
	cfg config.Config,
	oauthSvc oauth.Service,
	accounts repository.SocialAccountRepository,
	cipher utils.TokenCipher,
	client *http.Client) AccountService {
	if client == nil {
		client = &http.Client{Timeout: cfg.OAuthHTTPTimeout}
	}
	return &accountService{
		cfg:      cfg,
		oauth:    oauthSvc,
		accounts: accounts,
		cipher:   cipher,
		client:   client,
	}
}

// GetAuthURL signs a short-lived state carrying the user and platform and
// returns the provider's consent URL.
func (s *accountService) GetAuthURL(ctx context.Context, userID string, platform models.Platform) (string, error) {
	if userID == "" {
		return "", apperrors.New(apperrors.KindInvalidInput, "UserID is not valid")
	}

	state, err := utils.GenerateStateToken(s.cfg.SecretKey, userID, string(platform), stateTokenDuration)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindConfig, "unable to sign oauth state", err)
	}

	authURL, ok := s.oauth.GetAuthorizationURL(platform, state)
	if !ok {
		err = apperrors.Newf(apperrors.KindNotConfigured, "OAuth not configured for platform: %s", platform)
		slog.Info(err.Error())
		return "", err
	}

	return authURL, nil
}

// Callback completes a connect flow: the state proves who started it, the
// code is traded for tokens and the account is stored with encrypted tokens.
func (s *accountService) Callback(ctx context.Context, platform models.Platform, code, state string) (*models.SocialAccount, error) {
	if code == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "authorization code is missing")
	}

	claims, err := utils.ValidateToken(s.cfg.SecretKey, state)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, "invalid oauth state", err)
	}
	if claims.UserID == "" || claims.Platform != string(platform) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "oauth state does not match platform")
	}

	tokens, err := s.oauth.ExchangeCodeForToken(ctx, platform, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.oauth.FetchUserProfile(ctx, platform, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	encryptedAccess, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	var encryptedRefresh string
	if tokens.RefreshToken != "" {
		encryptedRefresh, err = s.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return nil, err
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	acc := &models.SocialAccount{
		ID:               id,
		UserID:           claims.UserID,
		Platform:         platform,
		PlatformUserID:   profile.ID,
		PlatformUsername: profile.Username,
		DisplayName:      profile.Name,
		ProfilePicture:   profile.ProfilePicture,
		FollowersCount:   profile.FollowersCount,
		AccessToken:      encryptedAccess,
		RefreshToken:     encryptedRefresh,
		ExpiresAt:        tokens.ExpiresAt,
	}

	if err := s.accounts.Upsert(ctx, acc); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error saving social account: %w", err)
	}

	slog.Info("Social account connected", "platform", platform, "user_id", claims.UserID)
	return acc, nil
}

func (s *accountService) List(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	if userID == "" {
		err := apperrors.New(apperrors.KindInvalidInput, "UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}

	return accounts, nil
}

// Delete disconnects an account. Providers that support revocation are asked
// to revoke the token first; a failed revoke is logged and the account is
// removed anyway.
func (s *accountService) Delete(ctx context.Context, userID, accountID string) error {
	if userID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "UserID is not valid")
	}
	if accountID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "AccountID is not valid")
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acc == nil || acc.UserID != userID {
		err = apperrors.New(apperrors.KindNotFound, "Social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.revoke(ctx, acc); err != nil {
		slog.Warn("Unable to revoke access", "platform", acc.Platform, "error", err)
	}

	if err := s.accounts.Remove(ctx, acc.ID); err != nil {
		return fmt.Errorf("error removing social account: %w", err)
	}

	return nil
}

// RefreshAccount trades the stored refresh token for a new access token and
// writes both back encrypted.
func (s *accountService) RefreshAccount(ctx context.Context, acc *models.SocialAccount) error {
	if acc.RefreshToken == "" {
		return apperrors.Newf(apperrors.KindInvalidInput, "%s account has no refresh token", acc.Platform)
	}

	refreshToken, err := s.cipher.Decrypt(acc.RefreshToken)
	if err != nil {
		return err
	}

	tokens, err := s.oauth.RefreshAccessToken(ctx, acc.Platform, refreshToken)
	if err != nil {
		return err
	}

	encryptedAccess, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return err
	}

	// an unchanged refresh token is left as stored
	var encryptedRefresh string
	if tokens.RefreshToken != "" && tokens.RefreshToken != refreshToken {
		encryptedRefresh, err = s.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return err
		}
	}

	return s.accounts.SetTokens(ctx, acc.ID, encryptedAccess, encryptedRefresh, tokens.ExpiresAt)
}

func (s *accountService) ConfiguredPlatforms() []models.Platform {
	return s.oauth.ConfiguredPlatforms()
}

func (s *accountService) revoke(ctx context.Context, acc *models.SocialAccount) error {
	if acc.Platform != models.PlatformTikTok && acc.Platform != models.PlatformYouTube {
		return nil
	}

	accessToken, err := s.cipher.Decrypt(acc.AccessToken)
	if err != nil {
		return err
	}

	form := url.Values{}
	endpoint := googleRevokeURL
	form.Set("token", accessToken)

	if acc.Platform == models.PlatformTikTok {
		cfg, ok := s.oauth.GetOAuthConfig(models.PlatformTikTok)
		if !ok {
			return errors.New("tiktok is not configured")
		}
		endpoint = tiktokRevokeURL
		form.Set("client_key", cfg.ClientID)
		form.Set("client_secret", cfg.ClientSecret)
	}

	req, err := utils.NewFormRequest(ctx, endpoint, form)
	if err != nil {
		return err
	}
	return utils.DoJSON(s.client, req, nil)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maheshrc27/crosspost/internal/metrics"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

// platformClient is what every platform publisher shares: the user's stored
// account, the token cipher, an HTTP client and a breaker for the provider.
type platformClient struct {
	platform models.Platform
	accounts repository.SocialAccountRepository
	cipher   utils.TokenCipher
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func newPlatformClient(
	platform models.Platform,
	accounts repository.SocialAccountRepository,
	cipher utils.TokenCipher,
	client *http.Client) platformClient {
	if client == nil {
		client = http.DefaultClient
	}
	return platformClient{
		platform: platform,
		accounts: accounts,
		cipher:   cipher,
		client:   client,
		breaker:  newBreaker(string(platform)),
	}
}

// account loads the user's connection and decrypts its access token.
func (c *platformClient) account(ctx context.Context, userID string) (*models.SocialAccount, string, error) {
	acc, err := c.accounts.GetByUserAndPlatform(ctx, userID, c.platform)
	if err != nil {
		return nil, "", err
	}
	if acc == nil {
		return nil, "", apperrors.Newf(apperrors.KindNotFound, "no connected %s account", c.platform)
	}

	accessToken, err := c.cipher.Decrypt(acc.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, "", err
	}
	return acc, accessToken, nil
}

// do sends req through the platform's breaker and decodes the JSON response.
func (c *platformClient) do(req *http.Request, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, utils.DoJSON(c.client, req, out)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", c.platform, err)
	}
	return nil
}

func (c *platformClient) bearer(req *http.Request, accessToken string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req
}

// NewPlatformPublishers wires one publisher per supported platform.
func NewPlatformPublishers(
	accounts repository.SocialAccountRepository,
	cipher utils.TokenCipher,
	client *http.Client) map[models.Platform]publisher.PlatformPublisher {
	return map[models.Platform]publisher.PlatformPublisher{
		models.PlatformFacebook:  NewFacebookPublisher(accounts, cipher, client),
		models.PlatformInstagram: NewInstagramPublisher(accounts, cipher, client),
		models.PlatformTwitter:   NewTwitterPublisher(accounts, cipher, client),
		models.PlatformLinkedIn:  NewLinkedInPublisher(accounts, cipher, client),
		models.PlatformTikTok:    NewTiktokPublisher(accounts, cipher, client),
		models.PlatformYouTube:   NewYoutubePublisher(accounts, cipher, client),
		models.PlatformPinterest: NewPinterestPublisher(accounts, cipher, client),
	}
}

func newBreaker(component string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        component,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: providerHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// providerHealthy decides what the breaker counts against a provider. A
// request the provider rejected for the caller's own reasons (bad token,
// invalid media) says nothing about the provider, so only 5xx, 429 and
// transport errors trip it.
func providerHealthy(err error) bool {
	if err == nil {
		return true
	}
	status := 0
	var httpErr *utils.HTTPError
	var apiErr *googleapi.Error
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode
	case errors.As(err, &apiErr):
		status = apiErr.Code
	}
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func firstMedia(urls []string, kind string) string {
	for _, u := range urls {
		if publisher.MediaKind(u) == kind {
			return u
		}
	}
	return ""
}

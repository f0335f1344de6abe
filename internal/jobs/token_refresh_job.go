package job

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maheshrc27/crosspost/internal/metrics"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/robfig/cron"
)

const (
	refreshWindow    = 30 * time.Minute
	concurrencyLimit = 10
	refreshTimeout   = 5 * time.Minute
)

// Refresher renews one account's tokens and stores them.
type Refresher interface {
	RefreshAccount(ctx context.Context, acc *models.SocialAccount) error
}

type TokenRefreshJob struct {
	accounts  repository.SocialAccountRepository
	refresher Refresher
	clock     clockwork.Clock

	running sync.Mutex
}

func NewTokenRefreshJob(
	accounts repository.SocialAccountRepository,
	refresher Refresher,
	clock clockwork.Clock) *TokenRefreshJob {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenRefreshJob{
		accounts:  accounts,
		refresher: refresher,
		clock:     clock,
	}
}

// Schedule registers the job on c under spec, e.g. "@every 10m".
func (j *TokenRefreshJob) Schedule(c *cron.Cron, spec string) error {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		j.RefreshTokens(ctx)
	})
}

// RefreshTokens renews every account expiring within the next 30 minutes,
// including already expired ones, and waits for all of them. A run that
// starts while another is in progress does nothing.
func (j *TokenRefreshJob) RefreshTokens(ctx context.Context) (refreshed, failed int) {
	if !j.running.TryLock() {
		slog.Info("Token refresh already running")
		return 0, 0
	}
	defer j.running.Unlock()

	accounts, err := j.accounts.ListExpiring(ctx, j.clock.Now().Add(refreshWindow))
	if err != nil {
		slog.Info(err.Error())
		return 0, 0
	}
	if len(accounts) == 0 {
		return 0, 0
	}

	var (
		wg      sync.WaitGroup
		ok, bad atomic.Int32
	)
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic while refreshing tokens", "account_id", acc.ID, "panic", r)
					bad.Add(1)
				}
			}()

			err := j.refresher.RefreshAccount(ctx, acc)
			metrics.TokenRefreshTotal.WithLabelValues(string(acc.Platform), metrics.Outcome(err)).Inc()
			if err != nil {
				slog.Info("Unable to refresh tokens", "platform", acc.Platform, "account_id", acc.ID, "error", err)
				bad.Add(1)
				return
			}
			ok.Add(1)
		}(acc)
	}

	wg.Wait()

	slog.Info("Token refresh finished", "refreshed", ok.Load(), "failed", bad.Load())
	return int(ok.Load()), int(bad.Load())
}

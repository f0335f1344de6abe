// Package publisher fans scheduled posts out to the platform publishers and
// records the per-platform outcome on the post.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/metrics"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

const (
	defaultTimeout = 2 * time.Minute
	defaultWorkers = 10
	// claimMargin covers the outcome write after the slowest provider call.
	claimMargin = time.Minute
)

// ErrNotClaimed means another run holds the post or it is no longer
// scheduled. Nothing was sent to any provider.
var ErrNotClaimed = errors.New("post is not available for publishing")

// PlatformPublisher posts content to a single platform on behalf of userID.
type PlatformPublisher interface {
	Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error)
}

// PublisherFunc adapts a function to PlatformPublisher.
type PublisherFunc func(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error)

func (f PublisherFunc) Publish(ctx context.Context, post *models.Post, userID string) (*models.PublishResult, error) {
	return f(ctx, post, userID)
}

// PublishOutcome reports a fan-out. Success is true only when every platform
// succeeded; Status is what the post was moved to.
type PublishOutcome struct {
	PostID  string                                    `json:"post_id"`
	Success bool                                      `json:"success"`
	Status  models.PostStatus                         `json:"status"`
	Results map[models.Platform]models.PlatformResult `json:"results"`
}

type Publisher interface {
	PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform) models.PlatformResult
	PublishPost(ctx context.Context, post *models.Post) (*PublishOutcome, error)
	ProcessScheduledPosts(ctx context.Context)
}

type publisher struct {
	store      repository.PostStore
	publishers map[models.Platform]PlatformPublisher
	clock      clockwork.Clock
	timeout    time.Duration
	workers    int
}

func NewPublisher(
	store repository.PostStore,
	publishers map[models.Platform]PlatformPublisher,
	cfg config.Publisher,
	clock clockwork.Clock) Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	return &publisher{
		store:      store,
		publishers: publishers,
		clock:      clock,
		timeout:    cfg.Timeout,
		workers:    cfg.Workers,
	}
}

// PublishToPlatform never returns an error: provider failures, timeouts and
// panics all come back as an unsuccessful result.
func (p *publisher) PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform) models.PlatformResult {
	pub, ok := p.publishers[platform]
	if !ok || pub == nil {
		return failed(fmt.Sprintf("No publisher found for platform: %s", platform))
	}

	if err := CheckMedia(post, platform); err != nil {
		return failed(err.Error())
	}
	if v := ValidatePostForPlatform(post.Content, platform); !v.Valid {
		return failed(v.Error)
	}

	start := time.Now()
	res, err := p.call(ctx, pub, post, platform)
	metrics.PublishDuration.WithLabelValues(string(platform)).Observe(time.Since(start).Seconds())
	metrics.PublishAttemptsTotal.WithLabelValues(string(platform), metrics.Outcome(err)).Inc()

	if err != nil {
		slog.Warn("publish failed", "post_id", post.ID, "platform", platform, "error", err)
		return failed(err.Error())
	}

	result := models.PlatformResult{Success: true}
	if res != nil {
		result.PlatformPostID = res.PlatformPostID
	}
	return result
}

type callResult struct {
	res *models.PublishResult
	err error
}

// call runs the provider under the publish timeout. A provider that ignores
// its context is abandoned once the deadline passes.
func (p *publisher) call(ctx context.Context, pub PlatformPublisher, post *models.Post, platform models.Platform) (*models.PublishResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("publisher panicked", "post_id", post.ID, "platform", platform, "panic", r)
				done <- callResult{err: fmt.Errorf("publisher for %s panicked: %v", platform, r)}
			}
		}()
		res, err := pub.Publish(ctx, post, post.UserID)
		done <- callResult{res: res, err: err}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("publish to %s: %w", platform, ctx.Err())
	}
}

// PublishPost publishes to every platform of post concurrently and moves the
// post to published when at least one platform accepted it, failed otherwise.
func (p *publisher) PublishPost(ctx context.Context, post *models.Post) (*PublishOutcome, error) {
	if post == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "post is required")
	}
	if post.Status.Terminal() {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "post %s is already %s", post.ID, post.Status)
	}

	claimed, err := p.store.ClaimPost(ctx, post.ID, p.clock.Now().UTC(), p.timeout+claimMargin)
	if err != nil {
		slog.Error("failed to claim post", "post_id", post.ID, "error", err)
		return nil, err
	}
	if claimed == nil {
		slog.Info("post already claimed or not scheduled", "post_id", post.ID)
		return nil, fmt.Errorf("post %s: %w", post.ID, ErrNotClaimed)
	}
	post = claimed

	slots := make([]models.PlatformResult, len(post.Platforms))

	var wg sync.WaitGroup
	for i, platform := range post.Platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()
			slots[i] = p.PublishToPlatform(ctx, post, platform)
		}(i, platform)
	}
	wg.Wait()

	outcome := &PublishOutcome{
		PostID:  post.ID,
		Success: len(slots) > 0,
		Results: make(map[models.Platform]models.PlatformResult, len(slots)),
	}
	anySuccess := false
	for i, platform := range post.Platforms {
		outcome.Results[platform] = slots[i]
		if slots[i].Success {
			anySuccess = true
		} else {
			outcome.Success = false
		}
	}

	update := &models.PostUpdate{Results: outcome.Results}
	if anySuccess {
		now := p.clock.Now().UTC()
		update.Status = models.PostStatusPublished
		update.PublishedAt = &now
	} else {
		update.Status = models.PostStatusFailed
	}
	outcome.Status = update.Status

	updated, err := p.store.UpdatePost(ctx, post.ID, update)
	if err != nil {
		slog.Error("failed to record publish outcome", "post_id", post.ID, "error", err)
		return outcome, err
	}
	if updated == nil {
		return outcome, apperrors.Newf(apperrors.KindNotFound, "post %s not found", post.ID)
	}

	metrics.PostsProcessedTotal.WithLabelValues(string(outcome.Status)).Inc()
	slog.Info("post processed", "post_id", post.ID, "status", outcome.Status, "success", outcome.Success)
	return outcome, nil
}

// ProcessScheduledPosts runs one scheduler tick. Failures are logged and
// never escape.
func (p *publisher) ProcessScheduledPosts(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	}()

	posts, err := p.store.GetScheduledPostsDue(ctx, p.clock.Now().UTC())
	if err != nil {
		slog.Error("failed to fetch scheduled posts", "error", err)
		metrics.SchedulerTicksTotal.WithLabelValues("fetch_error").Inc()
		return
	}
	metrics.SchedulerTicksTotal.WithLabelValues("ok").Inc()

	if len(posts) == 0 {
		return
	}
	slog.Info("processing scheduled posts", "count", len(posts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.workers)

	for _, post := range posts {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic while publishing post", "post_id", post.ID, "panic", r)
				}
			}()

			if _, err := p.PublishPost(ctx, post); errors.Is(err, ErrNotClaimed) {
				return
			} else if err != nil {
				slog.Error("failed to publish post", "post_id", post.ID, "error", err)
			}
		}(post)
	}

	wg.Wait()
}

func failed(msg string) models.PlatformResult {
	return models.PlatformResult{Success: false, Error: msg}
}

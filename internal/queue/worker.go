package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

// HandlePublishPostTask publishes the post named by the task. Posts that are
// gone, no longer scheduled, or claimed by a concurrent publish are skipped,
// since the scheduler may have published them first.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == "" {
		return fmt.Errorf("payload has no post id: %w", asynq.SkipRetry)
	}

	post, err := q.posts.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("Post no longer exists", "post_id", payload.PostID)
		return nil
	}
	if post.Status != models.PostStatusScheduled {
		slog.Info("Post is not scheduled; skipping", "post_id", post.ID, "status", post.Status)
		return nil
	}

	outcome, err := q.publisher.PublishPost(ctx, post)
	if err != nil {
		if errors.Is(err, publisher.ErrNotClaimed) {
			slog.Info("Post is being published elsewhere; skipping", "post_id", post.ID)
			return nil
		}
		if errors.Is(err, apperrors.ErrValidationFailed) || errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	slog.Info("Post published from queue", "post_id", post.ID, "status", outcome.Status, "success", outcome.Success)
	return nil
}

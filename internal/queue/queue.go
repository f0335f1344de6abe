package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	publishMaxRetry = 3
	publishTimeout  = 5 * time.Minute
)

// EnqueuePublish queues postID for immediate publishing.
func (q *Queue) EnqueuePublish(ctx context.Context, postID string) error {
	taskPayload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(publishMaxRetry),
		asynq.Timeout(publishTimeout),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("Task enqueued", "task_id", info.ID, "post_id", postID)
	return nil
}

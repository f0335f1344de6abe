package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func newTestQueue(t *testing.T, client enqueuer) (*Queue, repository.PostRepository, *atomic.Int32) {
	t.Helper()

	posts := repository.NewMemoryPostRepository()
	calls := &atomic.Int32{}
	pub := publisher.NewPublisher(posts, map[models.Platform]publisher.PlatformPublisher{
		models.PlatformTwitter: publisher.PublisherFunc(func(context.Context, *models.Post, string) (*models.PublishResult, error) {
			calls.Add(1)
			return &models.PublishResult{PlatformPostID: "tw-1"}, nil
		}),
	}, config.Publisher{Timeout: time.Second, Workers: 1}, clockwork.NewFakeClock())

	return newQueue(client, posts, pub), posts, calls
}

func createPost(t *testing.T, posts repository.PostRepository, id string, status models.PostStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, posts.Create(context.Background(), &models.Post{
		ID:          id,
		UserID:      "user-1",
		Content:     "hello",
		Platforms:   []models.Platform{models.PlatformTwitter},
		Status:      status,
		ScheduledAt: &now,
	}))
}

func publishTask(t *testing.T, postID string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	require.NoError(t, err)
	return asynq.NewTask(TaskTypePublishPost, payload)
}

func TestEnqueuePublish(t *testing.T) {
	client := &fakeEnqueuer{}
	q, _, _ := newTestQueue(t, client)

	require.NoError(t, q.EnqueuePublish(context.Background(), "post-1"))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TaskTypePublishPost, client.tasks[0].Type())
	assert.JSONEq(t, `{"post_id":"post-1"}`, string(client.tasks[0].Payload()))
}

func TestEnqueuePublish_Error(t *testing.T) {
	q, _, _ := newTestQueue(t, &fakeEnqueuer{err: errors.New("redis unavailable")})
	assert.EqualError(t, q.EnqueuePublish(context.Background(), "post-1"), "redis unavailable")
}

func TestHandlePublishPostTask(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes a scheduled post", func(t *testing.T) {
		q, posts, calls := newTestQueue(t, &fakeEnqueuer{})
		createPost(t, posts, "post-1", models.PostStatusScheduled)

		require.NoError(t, q.HandlePublishPostTask(ctx, publishTask(t, "post-1")))
		assert.Equal(t, int32(1), calls.Load())

		post, err := posts.GetByID(ctx, "post-1")
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPublished, post.Status)
		assert.Equal(t, "tw-1", post.Results[models.PlatformTwitter].PlatformPostID)
	})

	t.Run("skips posts that are not scheduled", func(t *testing.T) {
		q, posts, calls := newTestQueue(t, &fakeEnqueuer{})
		createPost(t, posts, "draft", models.PostStatusDraft)

		require.NoError(t, q.HandlePublishPostTask(ctx, publishTask(t, "draft")))
		assert.Zero(t, calls.Load())
	})

	t.Run("skips missing posts", func(t *testing.T) {
		q, _, calls := newTestQueue(t, &fakeEnqueuer{})
		require.NoError(t, q.HandlePublishPostTask(ctx, publishTask(t, "gone")))
		assert.Zero(t, calls.Load())
	})

	t.Run("bad payload is not retried", func(t *testing.T) {
		q, _, _ := newTestQueue(t, &fakeEnqueuer{})

		err := q.HandlePublishPostTask(ctx, asynq.NewTask(TaskTypePublishPost, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)

		err = q.HandlePublishPostTask(ctx, asynq.NewTask(TaskTypePublishPost, []byte(`{}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestMux_RoutesPublishTasks(t *testing.T) {
	q, posts, calls := newTestQueue(t, &fakeEnqueuer{})
	createPost(t, posts, "post-1", models.PostStatusScheduled)

	require.NoError(t, q.Mux().ProcessTask(context.Background(), publishTask(t, "post-1")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandlePublishPostTask_RacingSchedulerPublishesOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	posts := repository.NewMemoryPostRepository()
	require.NoError(t, posts.Create(ctx, &models.Post{
		ID:          "post-1",
		UserID:      "user-1",
		Content:     "hello",
		Platforms:   []models.Platform{models.PlatformTwitter},
		Status:      models.PostStatusScheduled,
		ScheduledAt: &now,
	}))

	var calls atomic.Int32
	pub := publisher.NewPublisher(posts, map[models.Platform]publisher.PlatformPublisher{
		models.PlatformTwitter: publisher.PublisherFunc(func(context.Context, *models.Post, string) (*models.PublishResult, error) {
			calls.Add(1)
			time.Sleep(100 * time.Millisecond)
			return &models.PublishResult{PlatformPostID: "tw-1"}, nil
		}),
	}, config.Publisher{Timeout: time.Second, Workers: 2}, clockwork.NewFakeClockAt(now))
	q := newQueue(&fakeEnqueuer{}, posts, pub)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, q.HandlePublishPostTask(ctx, publishTask(t, "post-1")))
	}()
	go func() {
		defer wg.Done()
		pub.ProcessScheduledPosts(ctx)
	}()
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	post, err := posts.GetByID(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)

	// A retried task after the post is published does nothing.
	require.NoError(t, q.HandlePublishPostTask(ctx, publishTask(t, "post-1")))
	assert.Equal(t, int32(1), calls.Load())
}

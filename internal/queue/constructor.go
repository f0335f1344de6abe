package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
)

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}

// enqueuer is the part of *asynq.Client the queue uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue moves "publish now" requests through Redis so the HTTP request does
// not wait on the providers.
type Queue struct {
	client    enqueuer
	posts     repository.PostRepository
	publisher publisher.Publisher
}

func NewQueue(
	client *asynq.Client,
	posts repository.PostRepository,
	pub publisher.Publisher) *Queue {
	return newQueue(client, posts, pub)
}

func newQueue(client enqueuer, posts repository.PostRepository, pub publisher.Publisher) *Queue {
	return &Queue{
		client:    client,
		posts:     posts,
		publisher: pub,
	}
}

// NewServer builds the asynq worker server for the publish queue.
func NewServer(redisURI string, concurrency int) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
	}), nil
}

// NewClient builds the asynq client for redisURI.
func NewClient(redisURI string) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}

// Mux routes publish tasks to the queue's handler.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
	return mux
}

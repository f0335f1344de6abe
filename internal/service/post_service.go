package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/jonboulle/clockwork"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxUploadSize = 256 << 20

var allowedUploadTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "webm": {}, "jpg": {}, "png": {}, "gif": {}, "webp": {},
}

var validate = validator.New()

// PublishEnqueuer hands a post to the background publish queue.
type PublishEnqueuer interface {
	EnqueuePublish(ctx context.Context, postID string) error
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error)
	ValidatePost(ctx context.Context, pc *transfer.PostCreation) (*transfer.PostValidation, error)
	List(ctx context.Context, userID string) ([]*models.Post, error)
	PostInfo(ctx context.Context, userID, postID string) (*models.Post, error)
	Schedule(ctx context.Context, userID, postID string, at time.Time) (*models.Post, error)
	PublishNow(ctx context.Context, userID, postID string) (*models.Post, error)
	Remove(ctx context.Context, userID, postID string) error
	UploadMedia(ctx context.Context, userID string, file *multipart.FileHeader) (*transfer.MediaUpload, error)
}

type postService struct {
	posts     repository.PostRepository
	storage   MediaStorage
	queue     PublishEnqueuer
	publisher publisher.Publisher
	clock     clockwork.Clock
}

// NewPostService builds the post service. With a nil queue, PublishNow runs
// the publisher inline.
func NewPostService(
	posts repository.PostRepository,
	storage MediaStorage,
	queue PublishEnqueuer,
	pub publisher.Publisher,
	clock clockwork.Clock) PostService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &postService{
		posts:     posts,
		storage:   storage,
		queue:     queue,
		publisher: pub,
		clock:     clock,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "User is not valid")
	}

	platforms, err := s.check(pc)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	post := &models.Post{
		ID:        id,
		UserID:    userID,
		Title:     strings.TrimSpace(pc.Title),
		Content:   pc.Content,
		Platforms: platforms,
		MediaURLs: pc.MediaURLs,
		Status:    models.PostStatusDraft,
	}

	if pc.ScheduledAt != nil {
		at := pc.ScheduledAt.UTC()
		if err := s.checkScheduleTime(at); err != nil {
			return nil, err
		}
		post.Status = models.PostStatusScheduled
		post.ScheduledAt = &at
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	slog.Info("Post created", "post_id", post.ID, "status", post.Status)
	return post, nil
}

// ValidatePost reports every platform problem instead of stopping at the
// first one.
func (s *postService) ValidatePost(ctx context.Context, pc *transfer.PostCreation) (*transfer.PostValidation, error) {
	if pc == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "post data is required")
	}
	if err := validate.Struct(pc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidationFailed, "invalid post", err)
	}

	platforms := dedupePlatforms(pc.Platforms)
	problems := platformProblems(&models.Post{Content: pc.Content, MediaURLs: pc.MediaURLs}, platforms)

	out := &transfer.PostValidation{Valid: len(problems) == 0}
	if len(problems) > 0 {
		out.Platforms = make(map[string]string, len(problems))
		for p, msg := range problems {
			out.Platforms[string(p)] = msg
		}
	}
	return out, nil
}

func (s *postService) List(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "User is not valid")
	}

	posts, err := s.posts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, userID, postID string) (*models.Post, error) {
	return s.owned(ctx, userID, postID)
}

// Schedule sets the publish time of a draft or moves an already scheduled
// post to a new time.
func (s *postService) Schedule(ctx context.Context, userID, postID string, at time.Time) (*models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status.Terminal() {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "post %s is already %s", post.ID, post.Status)
	}

	at = at.UTC()
	if err := s.checkScheduleTime(at); err != nil {
		return nil, err
	}

	return s.update(ctx, post.ID, &models.PostUpdate{Status: models.PostStatusScheduled, ScheduledAt: &at})
}

// PublishNow makes the post due immediately and hands it to the queue, or
// publishes it inline when no queue is configured.
func (s *postService) PublishNow(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status.Terminal() {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "post %s is already %s", post.ID, post.Status)
	}

	now := s.clock.Now().UTC()
	post, err = s.update(ctx, post.ID, &models.PostUpdate{Status: models.PostStatusScheduled, ScheduledAt: &now})
	if err != nil {
		return nil, err
	}

	if s.queue != nil {
		if err := s.queue.EnqueuePublish(ctx, post.ID); err != nil {
			slog.Error("failed to enqueue post", "post_id", post.ID, "error", err)
			return nil, fmt.Errorf("error queueing post: %w", err)
		}
		return post, nil
	}

	if _, err := s.publisher.PublishPost(ctx, post); err != nil && !errors.Is(err, publisher.ErrNotClaimed) {
		return nil, err
	}
	return s.owned(ctx, userID, postID)
}

func (s *postService) Remove(ctx context.Context, userID, postID string) error {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Remove(ctx, post.ID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}

// UploadMedia sniffs the file's real type, stores it under a fresh key that
// keeps the extension, and returns the public URL to attach to a post.
func (s *postService) UploadMedia(ctx context.Context, userID string, file *multipart.FileHeader) (*transfer.MediaUpload, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "User is not valid")
	}
	if file == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "no file provided")
	}
	if file.Size > maxUploadSize {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "file is larger than %d MB", maxUploadSize>>20)
	}
	if s.storage == nil {
		return nil, apperrors.New(apperrors.KindConfig, "media storage is not configured")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	if len(fileBytes) > maxUploadSize {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "file is larger than %d MB", maxUploadSize>>20)
	}

	kind, err := filetype.Match(fileBytes)
	if err != nil || kind == types.Unknown {
		return nil, apperrors.New(apperrors.KindValidationFailed, "unsupported file type")
	}
	if _, ok := allowedUploadTypes[kind.Extension]; !ok {
		return nil, apperrors.Newf(apperrors.KindValidationFailed, "file type %s is not allowed", kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s/%s.%s", userID, id, kind.Extension)

	url, err := s.storage.Upload(ctx, key, fileBytes, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	return &transfer.MediaUpload{
		Key:         key,
		URL:         url,
		ContentType: kind.MIME.Value,
		Kind:        kind.MIME.Type,
		Size:        int64(len(fileBytes)),
	}, nil
}

// check validates the request and returns its de-duplicated platforms.
func (s *postService) check(pc *transfer.PostCreation) ([]models.Platform, error) {
	if pc == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "post data is required")
	}
	if err := validate.Struct(pc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidationFailed, "invalid post", err)
	}

	platforms := dedupePlatforms(pc.Platforms)
	problems := platformProblems(&models.Post{Content: pc.Content, MediaURLs: pc.MediaURLs}, platforms)
	if len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range platforms {
			if msg, ok := problems[p]; ok {
				msgs = append(msgs, msg)
			}
		}
		return nil, apperrors.New(apperrors.KindValidationFailed, strings.Join(msgs, "; "))
	}
	return platforms, nil
}

func (s *postService) checkScheduleTime(at time.Time) error {
	if !at.After(s.clock.Now()) {
		return apperrors.New(apperrors.KindValidationFailed, "scheduled time must be in the future")
	}
	return nil
}

// owned loads a post and hides posts of other users behind NotFound.
func (s *postService) owned(ctx context.Context, userID, postID string) (*models.Post, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "User is not valid")
	}
	if postID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "post id is not valid")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		err = apperrors.New(apperrors.KindNotFound, "Post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (s *postService) update(ctx context.Context, postID string, u *models.PostUpdate) (*models.Post, error) {
	post, err := s.posts.UpdatePost(ctx, postID, u)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "Post doesn't exist")
	}
	return post, nil
}

func dedupePlatforms(names []string) []models.Platform {
	seen := make(map[models.Platform]struct{}, len(names))
	out := make([]models.Platform, 0, len(names))
	for _, name := range names {
		p, ok := models.ParsePlatform(name)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func platformProblems(post *models.Post, platforms []models.Platform) map[models.Platform]string {
	problems := make(map[models.Platform]string)
	for _, p := range platforms {
		if v := publisher.ValidatePostForPlatform(post.Content, p); !v.Valid {
			problems[p] = v.Error
			continue
		}
		if err := publisher.CheckMedia(post, p); err != nil {
			problems[p] = err.Error()
		}
	}
	return problems
}

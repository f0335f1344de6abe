package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

// PostStore is the part of post storage the publisher depends on.
type PostStore interface {
	GetScheduledPostsDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	// UpdatePost applies u to the post and returns the updated post, or nil
	// when no post has that id. A status change that would regress the post
	// fails with a validation error.
	UpdatePost(ctx context.Context, id string, u *models.PostUpdate) (*models.Post, error)
	// ClaimPost marks a scheduled post as being published until now+lease and
	// returns it. It returns nil when the post is missing, not scheduled, or
	// already claimed by an unexpired lease. Only one caller can win a claim.
	ClaimPost(ctx context.Context, id string, now time.Time, lease time.Duration) (*models.Post, error)
}

type PostRepository interface {
	PostStore
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.Post, error)
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, title, content, platforms, media_urls, status, scheduled_at, published_at, results, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, title, content, platforms, media_urls, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		post.ID,
		post.UserID,
		post.Title,
		post.Content,
		pq.Array(platformStrings(post.Platforms)),
		pq.Array(nonNilStrings(post.MediaURLs)),
		post.Status,
		nullTime(post.ScheduledAt),
		time.Now().UTC(),
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postRepository) GetScheduledPostsDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_at <= $2 AND (claimed_until IS NULL OR claimed_until <= $2)
		ORDER BY scheduled_at`
	return r.list(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) ClaimPost(ctx context.Context, id string, now time.Time, lease time.Duration) (*models.Post, error) {
	query := `
		UPDATE posts
		SET claimed_until = $3
		WHERE id = $1 AND status = $2 AND (claimed_until IS NULL OR claimed_until <= $4)
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, models.PostStatusScheduled, now.Add(lease), now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) UpdatePost(ctx context.Context, id string, u *models.PostUpdate) (*models.Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	current, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	if err := applyUpdate(current, u, time.Now().UTC()); err != nil {
		return nil, err
	}

	results, err := marshalResults(current.Results)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE posts
		SET status = $2,
			scheduled_at = $3,
			published_at = $4,
			results = $5,
			updated_at = $6,
			claimed_until = CASE WHEN $2 IN ('published', 'failed') THEN NULL ELSE claimed_until END
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		current.Status,
		nullTime(current.ScheduledAt),
		nullTime(current.PublishedAt),
		results,
		current.UpdatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return current, nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post        models.Post
		platforms   []string
		scheduledAt sql.NullTime
		publishedAt sql.NullTime
		results     []byte
	)

	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		pq.Array(&platforms),
		pq.Array(&post.MediaURLs),
		&post.Status,
		&scheduledAt,
		&publishedAt,
		&results,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, p := range platforms {
		post.Platforms = append(post.Platforms, models.Platform(p))
	}
	if scheduledAt.Valid {
		post.ScheduledAt = &scheduledAt.Time
	}
	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Time
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &post.Results); err != nil {
			return nil, fmt.Errorf("decode results for post %s: %w", post.ID, err)
		}
	}

	return &post, nil
}

// applyUpdate mutates post in place. Shared by every PostStore implementation
// so the transition rules are identical.
func applyUpdate(post *models.Post, u *models.PostUpdate, now time.Time) error {
	if u == nil {
		return nil
	}
	if post.Status.Terminal() {
		return apperrors.Newf(apperrors.KindValidationFailed, "post %s is already %s", post.ID, post.Status)
	}

	if u.Status != "" && u.Status != post.Status {
		if !post.Status.CanTransition(u.Status) {
			return apperrors.Newf(apperrors.KindValidationFailed,
				"post %s cannot move from %s to %s", post.ID, post.Status, u.Status)
		}
		post.Status = u.Status
	}
	if u.ScheduledAt != nil {
		t := *u.ScheduledAt
		post.ScheduledAt = &t
	}
	if u.PublishedAt != nil {
		t := *u.PublishedAt
		post.PublishedAt = &t
	}
	switch {
	case post.Status != models.PostStatusPublished:
		post.PublishedAt = nil
	case post.PublishedAt == nil:
		post.PublishedAt = &now
	}
	if u.Results != nil {
		post.Results = copyResults(u.Results)
	}

	post.UpdatedAt = now
	return nil
}

func copyResults(in map[models.Platform]models.PlatformResult) map[models.Platform]models.PlatformResult {
	if in == nil {
		return nil
	}
	out := make(map[models.Platform]models.PlatformResult, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func marshalResults(results map[models.Platform]models.PlatformResult) ([]byte, error) {
	if results == nil {
		return nil, nil
	}
	b, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return b, nil
}

func platformStrings(platforms []models.Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

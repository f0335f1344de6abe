package models

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

// CanTransition reports whether a post may move from s to next.
// Status only advances draft -> scheduled -> published|failed.
func (s PostStatus) CanTransition(next PostStatus) bool {
	switch s {
	case PostStatusDraft:
		return next == PostStatusScheduled
	case PostStatusScheduled:
		return next == PostStatusPublished || next == PostStatusFailed
	default:
		return false
	}
}

type Post struct {
	ID          string                      `db:"id" json:"id"`
	UserID      string                      `db:"user_id" json:"user_id"`
	Title       string                      `db:"title" json:"title,omitempty"`
	Content     string                      `db:"content" json:"content"`
	Platforms   []Platform                  `db:"platforms" json:"platforms"`
	MediaURLs   []string                    `db:"media_urls" json:"media_urls,omitempty"`
	Status      PostStatus                  `db:"status" json:"status"`
	ScheduledAt *time.Time                  `db:"scheduled_at" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time                  `db:"published_at" json:"published_at,omitempty"`
	Results     map[Platform]PlatformResult `db:"results" json:"results,omitempty"`
	CreatedAt   time.Time                   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                   `db:"updated_at" json:"updated_at"`
}

// IsDue reports whether the post is scheduled at or before now.
func (p *Post) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now)
}

// PostUpdate carries the fields a status transition writes back.
// Nil fields are left unchanged.
type PostUpdate struct {
	Status      PostStatus
	ScheduledAt *time.Time
	PublishedAt *time.Time
	Results     map[Platform]PlatformResult
}

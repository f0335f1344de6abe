package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

type memoryPostRepository struct {
	mu     sync.RWMutex
	posts  map[string]*models.Post
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryPostRepository returns a PostRepository backed by a map. It is the
// reference store when no database is configured.
func NewMemoryPostRepository() PostRepository {
	return &memoryPostRepository{
		posts:  make(map[string]*models.Post),
		claims: make(map[string]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[post.ID]; ok {
		return fmt.Errorf("post %s already exists", post.ID)
	}

	now := r.now()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *memoryPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

func (r *memoryPostRepository) ListByUserID(_ context.Context, userID string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.UserID == userID }, func(a, b *models.Post) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (r *memoryPostRepository) GetScheduledPostsDue(_ context.Context, now time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.IsDue(now) && !r.claimed(p.ID, now) }, func(a, b *models.Post) bool {
		return a.ScheduledAt.Before(*b.ScheduledAt)
	}), nil
}

func (r *memoryPostRepository) UpdatePost(_ context.Context, id string, u *models.PostUpdate) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}

	updated := clonePost(post)
	if err := applyUpdate(updated, u, r.now()); err != nil {
		return nil, err
	}
	r.posts[id] = updated
	if updated.Status.Terminal() {
		delete(r.claims, id)
	}
	return clonePost(updated), nil
}

func (r *memoryPostRepository) ClaimPost(_ context.Context, id string, now time.Time, lease time.Duration) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusScheduled || r.claimed(id, now) {
		return nil, nil
	}
	r.claims[id] = now.Add(lease)
	return clonePost(post), nil
}

// claimed reports whether id holds an unexpired claim. Callers hold r.mu.
func (r *memoryPostRepository) claimed(id string, now time.Time) bool {
	until, ok := r.claims[id]
	return ok && until.After(now)
}

func (r *memoryPostRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.posts, id)
	delete(r.claims, id)
	return nil
}

func (r *memoryPostRepository) filter(keep func(*models.Post) bool, less func(a, b *models.Post) bool) []*models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Post
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Platforms = append([]models.Platform(nil), p.Platforms...)
	c.MediaURLs = append([]string(nil), p.MediaURLs...)
	c.Results = copyResults(p.Results)
	if p.ScheduledAt != nil {
		t := *p.ScheduledAt
		c.ScheduledAt = &t
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

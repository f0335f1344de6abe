package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

type memorySocialAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*models.SocialAccount
}

func NewMemorySocialAccountRepository() SocialAccountRepository {
	return &memorySocialAccountRepository{accounts: make(map[string]*models.SocialAccount)}
}

func (r *memorySocialAccountRepository) Upsert(_ context.Context, sa *models.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	sa.CreatedAt = now
	for _, existing := range r.accounts {
		if existing.UserID == sa.UserID && existing.Platform == sa.Platform {
			sa.ID = existing.ID
			sa.CreatedAt = existing.CreatedAt
			break
		}
	}
	sa.UpdatedAt = now

	c := *sa
	r.accounts[sa.ID] = &c
	return nil
}

func (r *memorySocialAccountRepository) GetByID(_ context.Context, id string) (*models.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sa, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	c := *sa
	return &c, nil
}

func (r *memorySocialAccountRepository) GetByUserAndPlatform(_ context.Context, userID string, platform models.Platform) (*models.SocialAccount, error) {
	found := r.filter(func(sa *models.SocialAccount) bool {
		return sa.UserID == userID && sa.Platform == platform
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *memorySocialAccountRepository) ListByUserID(_ context.Context, userID string) ([]*models.SocialAccount, error) {
	return r.filter(func(sa *models.SocialAccount) bool { return sa.UserID == userID }), nil
}

func (r *memorySocialAccountRepository) ListExpiring(_ context.Context, before time.Time) ([]*models.SocialAccount, error) {
	return r.filter(func(sa *models.SocialAccount) bool {
		return sa.RefreshToken != "" && sa.ExpiresAt.Before(before)
	}), nil
}

func (r *memorySocialAccountRepository) SetTokens(_ context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sa, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	sa.AccessToken = accessToken
	if refreshToken != "" {
		sa.RefreshToken = refreshToken
	}
	sa.ExpiresAt = expiresAt
	sa.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memorySocialAccountRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}

func (r *memorySocialAccountRepository) filter(keep func(*models.SocialAccount) bool) []*models.SocialAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.SocialAccount
	for _, sa := range r.accounts {
		if keep(sa) {
			c := *sa
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}

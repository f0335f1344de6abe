package repository

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountRepositories() map[string]func(t *testing.T) SocialAccountRepository {
	return map[string]func(t *testing.T) SocialAccountRepository{
		"memory":   func(t *testing.T) SocialAccountRepository { return NewMemorySocialAccountRepository() },
		"postgres": func(t *testing.T) SocialAccountRepository { return NewSocialAccountRepository(openTestDB(t)) },
	}
}

func account(id, userID string, platform models.Platform, expiresAt time.Time) *models.SocialAccount {
	return &models.SocialAccount{
		ID:               id,
		UserID:           userID,
		Platform:         platform,
		PlatformUserID:   "pu-" + id,
		PlatformUsername: "name-" + id,
		AccessToken:      "cipher-access-" + id,
		RefreshToken:     "cipher-refresh-" + id,
		ExpiresAt:        expiresAt,
	}
}

func TestSocialAccountRepository_UpsertReplacesSamePlatform(t *testing.T) {
	for name, newRepo := range accountRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

			first := account("a1", "user-1", models.PlatformTwitter, exp)
			require.NoError(t, repo.Upsert(ctx, first))

			second := account("a2", "user-1", models.PlatformTwitter, exp)
			second.PlatformUsername = "renamed"
			require.NoError(t, repo.Upsert(ctx, second))
			assert.Equal(t, "a1", second.ID)

			list, err := repo.ListByUserID(ctx, "user-1")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "renamed", list[0].PlatformUsername)

			got, err := repo.GetByUserAndPlatform(ctx, "user-1", models.PlatformTwitter)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "a1", got.ID)

			missing, err := repo.GetByUserAndPlatform(ctx, "user-1", models.PlatformTikTok)
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestSocialAccountRepository_ListExpiring(t *testing.T) {
	for name, newRepo := range accountRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now().UTC()

			require.NoError(t, repo.Upsert(ctx, account("expired", "u", models.PlatformTwitter, now.Add(-time.Hour))))
			require.NoError(t, repo.Upsert(ctx, account("soon", "u", models.PlatformYouTube, now.Add(10*time.Minute))))
			require.NoError(t, repo.Upsert(ctx, account("later", "u", models.PlatformTikTok, now.Add(2*time.Hour))))
			noRefresh := account("norefresh", "u", models.PlatformFacebook, now.Add(-time.Hour))
			noRefresh.RefreshToken = ""
			require.NoError(t, repo.Upsert(ctx, noRefresh))

			list, err := repo.ListExpiring(ctx, now.Add(30*time.Minute))
			require.NoError(t, err)

			ids := map[string]bool{}
			for _, sa := range list {
				ids[sa.ID] = true
			}
			assert.Equal(t, map[string]bool{"expired": true, "soon": true}, ids)
		})
	}
}

func TestSocialAccountRepository_SetTokensKeepsRefreshWhenEmpty(t *testing.T) {
	for name, newRepo := range accountRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			require.NoError(t, repo.Upsert(ctx, account("a1", "u", models.PlatformYouTube, time.Now().UTC())))

			exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
			require.NoError(t, repo.SetTokens(ctx, "a1", "new-access", "", exp))

			got, err := repo.GetByID(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, "new-access", got.AccessToken)
			assert.Equal(t, "cipher-refresh-a1", got.RefreshToken)
			assert.True(t, exp.Equal(got.ExpiresAt))

			assert.ErrorIs(t, repo.SetTokens(ctx, "missing", "x", "", exp), ErrAccountNotFound)
		})
	}
}

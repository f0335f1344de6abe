package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

type SocialAccountRepository interface {
	// Upsert stores sa, replacing any account the user already connected on
	// the same platform. sa.ID is kept from the existing row in that case.
	Upsert(ctx context.Context, sa *models.SocialAccount) error
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	GetByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	// ListExpiring returns accounts holding a refresh token whose access token
	// expires before the given time, including already expired ones.
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	SetTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	Remove(ctx context.Context, id string) error
}

var ErrAccountNotFound = errors.New("social account not found")

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const accountColumns = `id, user_id, platform, platform_user_id, platform_username, display_name,
	profile_picture_url, followers_count, access_token, refresh_token, expires_at, created_at, updated_at`

func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (
			id,
			user_id,
			platform,
			platform_user_id,
			platform_username,
			display_name,
			profile_picture_url,
			followers_count,
			access_token,
			refresh_token,
			expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id = EXCLUDED.platform_user_id,
			platform_username = EXCLUDED.platform_username,
			display_name = EXCLUDED.display_name,
			profile_picture_url = EXCLUDED.profile_picture_url,
			followers_count = EXCLUDED.followers_count,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		sa.ID,
		sa.UserID,
		sa.Platform,
		sa.PlatformUserID,
		sa.PlatformUsername,
		sa.DisplayName,
		sa.ProfilePicture,
		sa.FollowersCount,
		sa.AccessToken,
		sa.RefreshToken,
		sa.ExpiresAt,
	).Scan(&sa.ID, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *socialAccountRepository) GetByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1 AND platform = $2`
	return r.get(ctx, query, userID, platform)
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1 ORDER BY platform`
	return r.list(ctx, query, userID)
}

func (r *socialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM social_accounts
		WHERE refresh_token <> '' AND expires_at < $1`
	return r.list(ctx, query, before)
}

func (r *socialAccountRepository) SetTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = $2,
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; account may not exist", "account_id", id)
		return ErrAccountNotFound
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) get(ctx context.Context, query string, args ...any) (*models.SocialAccount, error) {
	sa, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func scanAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.PlatformUserID, &sa.PlatformUsername,
		&sa.DisplayName, &sa.ProfilePicture, &sa.FollowersCount, &sa.AccessToken, &sa.RefreshToken,
		&sa.ExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

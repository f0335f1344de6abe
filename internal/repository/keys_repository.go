package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
)

type ApiKeyRepository interface {
	// GetUserIDByHash returns the owner of the key with that hash, or "" and
	// false when no key matches.
	GetUserIDByHash(ctx context.Context, keyHash string) (string, bool, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.ApiKey, error)
	Create(ctx context.Context, apiKey *models.ApiKey) error
	GetByID(ctx context.Context, id string) (*models.ApiKey, error)
	Remove(ctx context.Context, id string) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) GetUserIDByHash(ctx context.Context, keyHash string) (string, bool, error) {
	var userID string
	query := "SELECT user_id FROM api_keys WHERE key_hash = $1"
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		slog.Info(err.Error())
		return "", false, err
	}
	return userID, true, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID string) ([]*models.ApiKey, error) {
	query := `SELECT id, user_id, prefix, key_hash, created_at FROM api_keys WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var apiKeys []*models.ApiKey
	for rows.Next() {
		var apiKey models.ApiKey
		if err := rows.Scan(&apiKey.ID, &apiKey.UserID, &apiKey.Prefix, &apiKey.KeyHash, &apiKey.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		apiKeys = append(apiKeys, &apiKey)
	}
	return apiKeys, rows.Err()
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *models.ApiKey) error {
	query := `
		INSERT INTO api_keys (id, user_id, prefix, key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, apiKey.ID, apiKey.UserID, apiKey.Prefix, apiKey.KeyHash).Scan(&apiKey.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id string) (*models.ApiKey, error) {
	query := `SELECT id, user_id, prefix, key_hash, created_at FROM api_keys WHERE id = $1`
	var apiKey models.ApiKey
	err := r.db.QueryRowContext(ctx, query, id).Scan(&apiKey.ID, &apiKey.UserID, &apiKey.Prefix, &apiKey.KeyHash, &apiKey.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &apiKey, nil
}

func (r *apiKeyRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM api_keys WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

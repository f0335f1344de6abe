package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		platforms TEXT[] NOT NULL,
		media_urls TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'draft',
		scheduled_at TIMESTAMPTZ,
		published_at TIMESTAMPTZ,
		results JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`ALTER TABLE posts ADD COLUMN IF NOT EXISTS claimed_until TIMESTAMPTZ`,
	`CREATE INDEX IF NOT EXISTS posts_due_idx ON posts (scheduled_at) WHERE status = 'scheduled'`,
	`CREATE INDEX IF NOT EXISTS posts_user_idx ON posts (user_id)`,
	`CREATE TABLE IF NOT EXISTS social_accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		platform_user_id TEXT NOT NULL,
		platform_username TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		profile_picture_url TEXT NOT NULL DEFAULT '',
		followers_count BIGINT NOT NULL DEFAULT 0,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, platform)
	)`,
	`CREATE INDEX IF NOT EXISTS social_accounts_expiry_idx ON social_accounts (expires_at) WHERE refresh_token <> ''`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		prefix TEXT NOT NULL,
		key_hash TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS api_keys_user_idx ON api_keys (user_id)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

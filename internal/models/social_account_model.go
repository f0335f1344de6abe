package models

import (
	"time"
)

// SocialAccount is a user's connection to one platform. AccessToken and
// RefreshToken always hold ciphertext.
type SocialAccount struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Platform         Platform  `db:"platform" json:"platform"`
	PlatformUserID   string    `db:"platform_user_id" json:"platform_user_id"`
	PlatformUsername string    `db:"platform_username" json:"platform_username"`
	DisplayName      string    `db:"display_name" json:"display_name,omitempty"`
	ProfilePicture   string    `db:"profile_picture_url" json:"profile_picture,omitempty"`
	FollowersCount   int64     `db:"followers_count" json:"followers_count,omitempty"`
	AccessToken      string    `db:"access_token" json:"-"`
	RefreshToken     string    `db:"refresh_token" json:"-"`
	ExpiresAt        time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

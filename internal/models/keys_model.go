package models

import "time"

// ApiKey is stored by hash only; Prefix lets users tell keys apart.
type ApiKey struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Prefix    string    `db:"prefix" json:"prefix"`
	KeyHash   string    `db:"key_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

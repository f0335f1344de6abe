package transfer

import "time"

type PostCreation struct {
	Title       string     `json:"title" validate:"max=100"`
	Content     string     `json:"content" validate:"required"`
	Platforms   []string   `json:"platforms" validate:"required,min=1,dive,oneof=facebook instagram twitter linkedin tiktok youtube pinterest"`
	MediaURLs   []string   `json:"media_urls" validate:"omitempty,dive,url"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type PostSchedule struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// PostValidation is the per-platform verdict on a draft.
type PostValidation struct {
	Valid     bool              `json:"valid"`
	Platforms map[string]string `json:"platforms,omitempty"`
}

type MediaUpload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Kind        string `json:"kind"`
	Size        int64  `json:"size"`
}

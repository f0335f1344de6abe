package models

// PlatformResult is the outcome of publishing a post to one platform.
type PlatformResult struct {
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PublishResult is what a platform publisher reports on success.
type PublishResult struct {
	PlatformPostID string
	URL            string
}

package publisher

import (
	"fmt"
	"unicode/utf8"

	"github.com/maheshrc27/crosspost/internal/models"
)

// ContentLimits holds the maximum post length per platform, in code points.
var ContentLimits = map[models.Platform]int{
	models.PlatformTwitter:   280,
	models.PlatformFacebook:  63206,
	models.PlatformInstagram: 2200,
	models.PlatformLinkedIn:  3000,
	models.PlatformTikTok:    2200,
	models.PlatformYouTube:   5000,
	models.PlatformPinterest: 500,
}

type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ValidatePostForPlatform(content string, platform models.Platform) ValidationResult {
	limit, ok := ContentLimits[platform]
	if !ok {
		return ValidationResult{Error: "Unknown platform"}
	}

	n := utf8.RuneCountInString(content)
	if n > limit {
		return ValidationResult{
			Error: fmt.Sprintf("Content exceeds %s limit: %d characters (max %d)", platform, n, limit),
		}
	}
	return ValidationResult{Valid: true}
}

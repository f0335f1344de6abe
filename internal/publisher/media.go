package publisher

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/crosspost/internal/models"
)

const (
	mediaVideo = "video"
	mediaImage = "image"
)

// requiredMedia names the platforms that cannot publish text alone.
var requiredMedia = map[models.Platform]string{
	models.PlatformTikTok:    mediaVideo,
	models.PlatformYouTube:   mediaVideo,
	models.PlatformPinterest: mediaImage,
}

// Extensions filetype only knows under another name.
var extensionAliases = map[string]string{
	"jpeg": "jpg",
	"tiff": "tif",
	"mpeg": "mpg",
	"qt":   "mov",
}

// MediaKind classifies a media URL as "video" or "image" by its file
// extension. Anything else yields "".
func MediaKind(rawURL string) string {
	ext := mediaExt(rawURL)
	if alias, ok := extensionAliases[ext]; ok {
		ext = alias
	}
	if ext == "" {
		return ""
	}

	switch filetype.GetType(ext).MIME.Type {
	case mediaVideo:
		return mediaVideo
	case mediaImage:
		return mediaImage
	default:
		return ""
	}
}

func mediaExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// RequiredMedia returns the media kind platform cannot publish without, or "".
func RequiredMedia(platform models.Platform) string {
	return requiredMedia[platform]
}

// FirstMedia returns the first URL of kind. Failing that it falls back to the
// first URL without an extension, such as a signed storage link, and leaves
// the final word to the provider.
func FirstMedia(urls []string, kind string) string {
	unknown := ""
	for _, u := range urls {
		if MediaKind(u) == kind {
			return u
		}
		if unknown == "" && strings.TrimSpace(u) != "" && mediaExt(u) == "" {
			unknown = u
		}
	}
	return unknown
}

// CheckMedia fails when platform needs a media type the post does not carry.
func CheckMedia(post *models.Post, platform models.Platform) error {
	kind, ok := requiredMedia[platform]
	if !ok || FirstMedia(post.MediaURLs, kind) != "" {
		return nil
	}
	return fmt.Errorf("%s requires %s content: attach at least one %s", platform, kind, kind)
}

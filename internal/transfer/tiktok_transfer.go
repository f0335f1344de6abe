package transfer

type TiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// Failed reports whether the envelope carries a real error. TikTok sends
// code "ok" on success.
func (e TiktokError) Failed() bool {
	return e.Code != "" && e.Code != "ok"
}

type TiktokToken struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
}

// TiktokTokenResponse accepts both the nested {"data": {...}} shape and the
// flat shape the token endpoint returns.
type TiktokTokenResponse struct {
	TiktokToken
	Data             *TiktokToken `json:"data"`
	Error            string       `json:"error"`
	ErrorDescription string       `json:"error_description"`
}

func (r *TiktokTokenResponse) Token() TiktokToken {
	if r.Data != nil && r.Data.AccessToken != "" {
		return *r.Data
	}
	return r.TiktokToken
}

type TikTokUserResponse struct {
	Data  TiktokUserData `json:"data"`
	Error TiktokError    `json:"error"`
}

type TiktokUserData struct {
	User TiktokUser `json:"user"`
}

type TiktokUser struct {
	OpenID        string `json:"open_id"`
	AvatarURL     string `json:"avatar_url"`
	DisplayName   string `json:"display_name"`
	Username      string `json:"username"`
	FollowerCount int64  `json:"follower_count"`
}

type TikTokUploadResponse struct {
	Data  TiktokPublishData `json:"data"`
	Error TiktokError       `json:"error"`
}

type TiktokPublishData struct {
	PublishID string `json:"publish_id"`
}

type VideoPostInfo struct {
	Title                 string `json:"title"`
	PrivacyLevel          string `json:"privacy_level"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableComment        bool   `json:"disable_comment"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
}

type VideoSourceInfo struct {
	Source   string `json:"source"`
	VideoURL string `json:"video_url"`
}

type VideoUploadRequest struct {
	PostInfo   VideoPostInfo   `json:"post_info"`
	SourceInfo VideoSourceInfo `json:"source_info"`
}

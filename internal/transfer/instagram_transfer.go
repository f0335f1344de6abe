package transfer

// Graph API shapes shared by the Facebook and Instagram integrations.

type GraphPicture struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

type GraphPage struct {
	ID                       string             `json:"id"`
	Name                     string             `json:"name"`
	FollowersCount           int64              `json:"followers_count"`
	AccessToken              string             `json:"access_token,omitempty"`
	InstagramBusinessAccount *InstagramUserInfo `json:"instagram_business_account,omitempty"`
}

type GraphPages struct {
	Data []GraphPage `json:"data"`
}

type FacebookUser struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Picture  GraphPicture `json:"picture"`
	Accounts GraphPages   `json:"accounts"`
}

type InstagramUserInfo struct {
	UserID         string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture_url"`
	FollowersCount int64  `json:"followers_count"`
}

type GraphID struct {
	ID string `json:"id"`
}

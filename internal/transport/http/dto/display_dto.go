package dto

type RollingTokenResponse struct {
	Token     string `json:"token"`
	SiteID    string `json:"si_id"`
	Slot      int64  `json:"slot"`
	Mode      string `json:"mode"`
	ExpiresIn int64  `json:"expires_in"`
}

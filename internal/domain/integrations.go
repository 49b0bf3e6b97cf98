package domain

// Tracking platforms.
const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformLinkedIn  = "linkedin"
	PlatformYouTube   = "youtube"
)

// Platforms lists every tracking platform in display order.
var Platforms = []string{PlatformFacebook, PlatformInstagram, PlatformTikTok, PlatformLinkedIn, PlatformYouTube}

type FacebookIntegration struct {
	Enabled     bool   `json:"enabled"`
	PixelID     string `json:"pixelId"`
	AccessToken string `json:"accessToken"`
	PageID      string `json:"pageId"`
	AppID       string `json:"appId"`
	AppSecret   string `json:"appSecret"`
}

type InstagramIntegration struct {
	Enabled           bool   `json:"enabled"`
	AccessToken       string `json:"accessToken"`
	BusinessAccountID string `json:"businessAccountId"`
}

type TikTokIntegration struct {
	Enabled      bool   `json:"enabled"`
	PixelID      string `json:"pixelId"`
	AccessToken  string `json:"accessToken"`
	AdvertiserID string `json:"advertiserId"`
}

type LinkedInIntegration struct {
	Enabled        bool   `json:"enabled"`
	PartnerID      string `json:"partnerId"`
	AccessToken    string `json:"accessToken"`
	OrganizationID string `json:"organizationId"`
}

type YouTubeIntegration struct {
	Enabled      bool   `json:"enabled"`
	APIKey       string `json:"apiKey"`
	ChannelID    string `json:"channelId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// SocialIntegrations holds the admin-managed tracking credentials.
type SocialIntegrations struct {
	Facebook  FacebookIntegration  `json:"facebook"`
	Instagram InstagramIntegration `json:"instagram"`
	TikTok    TikTokIntegration    `json:"tiktok"`
	LinkedIn  LinkedInIntegration  `json:"linkedin"`
	YouTube   YouTubeIntegration   `json:"youtube"`
}

// TrackingPlatform is the public part of one integration.
type TrackingPlatform struct {
	Enabled bool   `json:"enabled"`
	PixelID string `json:"pixel_id,omitempty"`
}

// TrackingConfig is what the public site needs to decide which pixels to
// load. It never carries secrets.
type TrackingConfig struct {
	Platforms map[string]TrackingPlatform `json:"platforms"`
}

// Platform returns the settings for name; unknown platforms are disabled.
func (c TrackingConfig) Platform(name string) TrackingPlatform {
	if c.Platforms == nil {
		return TrackingPlatform{}
	}
	return c.Platforms[name]
}

// Tracking strips secrets from the integrations.
func (s SocialIntegrations) Tracking() TrackingConfig {
	return TrackingConfig{Platforms: map[string]TrackingPlatform{
		PlatformFacebook:  {Enabled: s.Facebook.Enabled, PixelID: s.Facebook.PixelID},
		PlatformInstagram: {Enabled: s.Instagram.Enabled},
		PlatformTikTok:    {Enabled: s.TikTok.Enabled, PixelID: s.TikTok.PixelID},
		PlatformLinkedIn:  {Enabled: s.LinkedIn.Enabled, PixelID: s.LinkedIn.PartnerID},
		PlatformYouTube:   {Enabled: s.YouTube.Enabled},
	}}
}

package domain

// Platform identifies one of the supported external content services. The set
// is closed: adding a platform means adding a constant here plus an adapter
// implementation in internal/scrape.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// Platforms lists all supported platforms in the order ingestion visits them.
func Platforms() []Platform {
	return []Platform{PlatformYouTube, PlatformTikTok, PlatformInstagram}
}

// ParsePlatform returns the Platform for a raw string, or ok=false when the
// value names no supported platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram:
		return Platform(s), true
	}
	return "", false
}

// String returns the platform's wire name.
func (p Platform) String() string { return string(p) }

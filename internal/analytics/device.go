package analytics

import (
	"strings"

	"github.com/WankioM/property-qr/internal/models"
)

// ParseUserAgent classifies a user agent with ordered substring checks.
// An empty user agent yields nil.
func ParseUserAgent(userAgent string) *models.DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		return nil
	}
	ua := strings.ToLower(userAgent)

	info := &models.DeviceInfo{
		DeviceType:      deviceType(ua),
		OperatingSystem: operatingSystem(ua),
		Browser:         browser(ua),
	}
	info.IsMobile = info.DeviceType == models.DeviceMobile
	return info
}

func deviceType(ua string) models.DeviceType {
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return models.DeviceTablet
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}

// mobile platforms are checked first, their user agents also mention linux
// or mac os.
// NOTE: deliberate behaviour change, desktop-first order reported Android as Linux.
func operatingSystem(ua string) string {
	switch {
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		return "iOS"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return ""
	}
}

// Edge and Chrome user agents both mention chrome and safari, so the most
// specific token wins.
// NOTE: deliberate behaviour change, chrome-first order reported Edge as Chrome.
func browser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		return "Edge"
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios"):
		return "Chrome"
	case strings.Contains(ua, "firefox") || strings.Contains(ua, "fxios"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	default:
		return ""
	}
}

package scanner

import (
	"strings"

	"github.com/accesslog-scanner/internal/types"
)

// DetectDevice maps a user agent string to a coarse device category. It is
// a pure function: the same input always yields the same category, and a
// nil user agent yields DeviceUnknown.
func DetectDevice(userAgent *string) types.Device {
	if userAgent == nil || *userAgent == "" {
		return types.DeviceUnknown
	}

	ua := strings.ToLower(*userAgent)

	switch {
	case strings.Contains(ua, "bot"),
		strings.Contains(ua, "crawler"),
		strings.Contains(ua, "spider"),
		strings.Contains(ua, "slurp"):
		return types.DeviceBot

	case strings.Contains(ua, "ipad"),
		strings.Contains(ua, "kindle"),
		strings.Contains(ua, "tablet"),
		// Android tablets report "android" without "mobile"
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return types.DeviceTablet

	case strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipod"),
		strings.Contains(ua, "android"),
		strings.Contains(ua, "windows phone"),
		strings.Contains(ua, "blackberry"):
		return types.DeviceMobile

	default:
		return types.DevicePC
	}
}

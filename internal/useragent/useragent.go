// Package useragent classifies visitors from the User-Agent string.
//
// Classification is pure pattern matching with no I/O: every input maps to
// exactly one device type, a best-effort browser family, and an operating
// system label. Unmatched inputs fall back to desktop/Other/unknown.
package useragent

import "strings"

// Device types
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Fallback labels for unmatched user agents
const (
	BrowserOther = "Other"
	OSUnknown    = "unknown"
)

// Profile is the environment classification derived from a User-Agent string.
type Profile struct {
	DeviceType string
	Browser    string
	OS         string
}

// Classify parses a User-Agent string into a Profile. It never fails;
// unrecognized agents classify as desktop with Other/unknown labels.
func Classify(userAgent string) Profile {
	ua := strings.ToLower(userAgent)
	return Profile{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		OS:         classifyOS(ua),
	}
}

// classifyDevice buckets the agent into mobile, tablet or desktop.
// Tablet indicators are checked first: tablet agents often contain
// "mobile" too, and must not be misfiled as phones.
func classifyDevice(ua string) string {
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") ||
		strings.Contains(ua, "iphone") || strings.Contains(ua, "ipod") ||
		strings.Contains(ua, "blackberry") || strings.Contains(ua, "windows phone") {
		return DeviceMobile
	}
	return DeviceDesktop
}

// classifyBrowser returns a normalized browser family name.
// Match order matters: Chromium-based agents advertise several tokens
// (e.g. Edge sends both "edg" and "chrome"), so the more specific
// families are tested first.
func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		return "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "samsungbrowser"):
		return "Samsung Internet"
	case strings.Contains(ua, "firefox") || strings.Contains(ua, "fxios"):
		return "Firefox"
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios") || strings.Contains(ua, "chromium"):
		return "Chrome"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident"):
		return "IE"
	default:
		return BrowserOther
	}
}

// classifyOS returns a normalized operating system name.
// iOS is tested before MacOS: iPads report "like Mac OS X".
func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows phone"):
		return "Windows Phone"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") ||
		strings.Contains(ua, "ipod") || strings.Contains(ua, "ios"):
		return "iOS"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh") || strings.Contains(ua, "darwin"):
		return "MacOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return OSUnknown
	}
}

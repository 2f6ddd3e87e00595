package useragent_test

import (
	"testing"

	"courselytics/internal/useragent"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name            string
		userAgent       string
		expectedDevice  string
		expectedBrowser string
		expectedOS      string
	}{
		{
			name:            "Chrome on Windows",
			userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: "Chrome",
			expectedOS:      "Windows",
		},
		{
			name:            "Safari on iPhone",
			userAgent:       "Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
			expectedDevice:  useragent.DeviceMobile,
			expectedBrowser: "Safari",
			expectedOS:      "iOS",
		},
		{
			name:            "Chrome on Android phone",
			userAgent:       "Mozilla/5.0 (Linux; Android 11; SM-G998B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.120 Mobile Safari/537.36",
			expectedDevice:  useragent.DeviceMobile,
			expectedBrowser: "Chrome",
			expectedOS:      "Android",
		},
		{
			name:            "Safari on iPad",
			userAgent:       "Mozilla/5.0 (iPad; CPU OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
			expectedDevice:  useragent.DeviceTablet,
			expectedBrowser: "Safari",
			expectedOS:      "iOS",
		},
		{
			name:            "Android tablet carrying both markers",
			userAgent:       "Mozilla/5.0 (Linux; Android 12; Tablet; SM-X200) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/99.0 Mobile Safari/537.36",
			expectedDevice:  useragent.DeviceTablet,
			expectedBrowser: "Chrome",
			expectedOS:      "Android",
		},
		{
			name:            "Edge on Windows",
			userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: "Edge",
			expectedOS:      "Windows",
		},
		{
			name:            "Firefox on Linux",
			userAgent:       "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: "Firefox",
			expectedOS:      "Linux",
		},
		{
			name:            "Safari on Mac",
			userAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: "Safari",
			expectedOS:      "MacOS",
		},
		{
			name:            "empty user agent",
			userAgent:       "",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: useragent.BrowserOther,
			expectedOS:      useragent.OSUnknown,
		},
		{
			name:            "garbage input",
			userAgent:       "not-a-real-user-agent",
			expectedDevice:  useragent.DeviceDesktop,
			expectedBrowser: useragent.BrowserOther,
			expectedOS:      useragent.OSUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := useragent.Classify(tc.userAgent)

			if result.DeviceType != tc.expectedDevice {
				t.Errorf("Expected device %s, got %s", tc.expectedDevice, result.DeviceType)
			}
			if result.Browser != tc.expectedBrowser {
				t.Errorf("Expected browser %s, got %s", tc.expectedBrowser, result.Browser)
			}
			if result.OS != tc.expectedOS {
				t.Errorf("Expected OS %s, got %s", tc.expectedOS, result.OS)
			}
		})
	}
}

// Every classification must land in exactly one of the three device buckets.
func TestClassifyDeviceAlwaysBucketed(t *testing.T) {
	agents := []string{
		"",
		"Mozilla/5.0",
		"curl/8.0.1",
		"Mozilla/5.0 (iPad; Tablet; Mobile)",
		"Mozilla/5.0 (Linux; Android 13) Mobile",
	}

	valid := map[string]bool{
		useragent.DeviceMobile:  true,
		useragent.DeviceTablet:  true,
		useragent.DeviceDesktop: true,
	}

	for _, agent := range agents {
		result := useragent.Classify(agent)
		if !valid[result.DeviceType] {
			t.Errorf("Classify(%q) produced invalid device type %q", agent, result.DeviceType)
		}
	}
}

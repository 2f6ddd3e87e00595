package referrers

import "testing"

func TestFriendlyName(t *testing.T) {
	tests := []struct {
		hostname string
		expected string
	}{
		// Known referrers
		{"google.com", "Google"},
		{"news.ycombinator.com", "Hacker News"},
		{"x.com", "X/Twitter"},
		{"twitter.com", "X/Twitter"},
		{"reddit.com", "Reddit"},
		{"freecodecamp.org", "freeCodeCamp"},

		// With www prefix
		{"www.google.com", "Google"},
		{"www.reddit.com", "Reddit"},

		// Subdomains of known referrers
		{"m.facebook.com", "Facebook"},
		{"forum.freecodecamp.org", "freeCodeCamp"},

		// Unknown referrers (capitalized)
		{"example.com", "Example.com"},
		{"www.example.com", "Example.com"}, // www. stripped
		{"myblog.io", "Myblog.io"},

		// Case insensitive
		{"GOOGLE.COM", "Google"},
		{"News.Ycombinator.Com", "Hacker News"},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			got := FriendlyName(tt.hostname)
			if got != tt.expected {
				t.Errorf("FriendlyName(%q) = %q, want %q", tt.hostname, got, tt.expected)
			}
		})
	}
}

func TestFromURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"", Direct},
		{"direct", Direct},
		{"  ", Direct},
		{"https://www.google.com/search?q=go+course", "Google"},
		{"https://news.ycombinator.com/item?id=1", "Hacker News"},
		{"https://t.co/abc123", "X/Twitter"},
		{"https://example.com:8080/page", "Example.com"},
		{"partner-site.com", "Partner-site.com"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := FromURL(tt.raw)
			if got != tt.expected {
				t.Errorf("FromURL(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

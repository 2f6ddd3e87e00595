// Package referrers normalizes raw referrer values into human-friendly
// traffic source names for the daily rollup.
package referrers

import (
	"net/url"
	"strings"
)

// Direct is the bucket for visits that arrived without a referrer.
const Direct = "Direct"

// Common referrer hostnames mapped to friendly display names
var knownReferrers = map[string]string{
	// Search engines
	"google.com":     "Google",
	"google.co.uk":   "Google",
	"google.de":      "Google",
	"google.co.in":   "Google",
	"google.com.br":  "Google",
	"bing.com":       "Bing",
	"duckduckgo.com": "DuckDuckGo",
	"yahoo.com":      "Yahoo",
	"ecosia.org":     "Ecosia",

	// Social media
	"x.com":           "X/Twitter",
	"twitter.com":     "X/Twitter",
	"t.co":            "X/Twitter",
	"facebook.com":    "Facebook",
	"l.facebook.com":  "Facebook",
	"instagram.com":   "Instagram",
	"linkedin.com":    "LinkedIn",
	"lnkd.in":         "LinkedIn",
	"reddit.com":      "Reddit",
	"old.reddit.com":  "Reddit",
	"youtube.com":     "YouTube",
	"youtu.be":        "YouTube",
	"discord.com":     "Discord",
	"t.me":            "Telegram",
	"whatsapp.com":    "WhatsApp",
	"mastodon.social": "Mastodon",
	"bsky.app":        "Bluesky",

	// Tech and learning communities
	"news.ycombinator.com": "Hacker News",
	"dev.to":               "DEV Community",
	"medium.com":           "Medium",
	"substack.com":         "Substack",
	"github.com":           "GitHub",
	"stackoverflow.com":    "Stack Overflow",
	"quora.com":            "Quora",
	"freecodecamp.org":     "freeCodeCamp",

	// Email providers (for newsletter clicks)
	"mail.google.com":    "Gmail",
	"outlook.live.com":   "Outlook",
	"outlook.office.com": "Outlook",

	// Link shorteners
	"bit.ly":      "Bitly",
	"tinyurl.com": "TinyURL",
}

// FromURL buckets a stored referrer value. Empty values and the literal
// "direct" marker map to Direct; everything else is reduced to its hostname
// and looked up, so every variant of a source lands in one bucket.
func FromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "direct") {
		return Direct
	}

	hostname := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		hostname = parsed.Host
	}
	if host, _, found := strings.Cut(hostname, ":"); found {
		hostname = host
	}

	return FriendlyName(hostname)
}

// FriendlyName returns a human-friendly name for a referrer hostname.
// If the hostname is not in the known list, it returns the hostname
// with common prefixes like "www." removed and first letter capitalized.
func FriendlyName(hostname string) string {
	hostname = strings.ToLower(hostname)

	if name, ok := knownReferrers[hostname]; ok {
		return name
	}

	if withoutWWW, found := strings.CutPrefix(hostname, "www."); found {
		if name, ok := knownReferrers[withoutWWW]; ok {
			return name
		}
		hostname = withoutWWW
	}

	for domain, name := range knownReferrers {
		if strings.HasSuffix(hostname, "."+domain) {
			return name
		}
	}

	return capitalizeFirst(hostname)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

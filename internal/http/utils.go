package http

import (
	"net"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// hostFromURL pulls the host out of the tracked page URL so the localhost
// guard sees the page origin, not the collector's own hostname. Falls back
// to the request hostname for relative or unparsable URLs.
func hostFromURL(rawURL, fallback string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return fallback
}

// pagePath reduces a tracked URL to its path. Stored page identity is the
// path, not the full URL, so duration backfills match across navigations
// regardless of scheme or query noise.
func pagePath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		if rawURL == "" {
			return "/"
		}
		return rawURL
	}
	return parsed.Path
}

// clientIP extracts the best candidate client address from proxy headers,
// preferring the first public entry in X-Forwarded-For, then the common
// single-value reverse-proxy headers, then the transport remote address.
// Returns an empty string when nothing usable is present; the geo chain
// treats that as a skipped tier rather than an error.
func clientIP(c *fiber.Ctx) string {
	if ip := selectPreferredIP(strings.Split(c.Get("X-Forwarded-For"), ",")); ip != "" {
		return ip
	}

	for _, header := range []string{
		"X-Real-IP",
		"CF-Connecting-IP",
		"True-Client-IP",
		"X-Client-IP",
	} {
		if value := c.Get(header); value != "" {
			if ip := selectPreferredIP([]string{value}); ip != "" {
				return ip
			}
		}
	}

	remoteAddr := c.Context().RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		if parsed := net.ParseIP(host); parsed != nil {
			return host
		}
	}

	if ip := strings.TrimSpace(c.IP()); ip != "" {
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}

	return ""
}

// selectPreferredIP returns the first public IP among candidates, falling
// back to the first syntactically valid one when none are public.
func selectPreferredIP(candidates []string) string {
	var firstValid string
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		parsed := net.ParseIP(candidate)
		if parsed == nil {
			continue
		}
		if firstValid == "" {
			firstValid = candidate
		}
		if !isPrivateIP(parsed) {
			return candidate
		}
	}
	return firstValid
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

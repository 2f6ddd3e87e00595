package http

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"courselytics/internal/geo"
)

// GeoAction resolves the caller's country through the full fallback chain
// and reports which tier produced the answer. Clients call it once per
// session and cache the result.
func (h *Handlers) GeoAction(c *fiber.Ctx) error {
	req := geo.Request{
		EdgeCountryCode: c.Get("CF-IPCountry"),
		IP:              clientIP(c),
		Timezone:        c.Query("tz"),
		Locale:          c.Query("locale"),
	}
	if req.Locale == "" {
		req.Locale = firstAcceptLanguage(c.Get("Accept-Language"))
	}

	result := h.resolver.Resolve(c.Context(), req)
	h.logger.Debug("Resolved visitor country",
		slog.String("country", result.Country),
		slog.String("source", result.Source))

	return c.JSON(result)
}

// firstAcceptLanguage extracts the highest-priority language tag from an
// Accept-Language header, ignoring quality values.
func firstAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	first := strings.SplitN(header, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return strings.TrimSpace(first)
}

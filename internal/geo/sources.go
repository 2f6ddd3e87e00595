package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// Source tier names, reported back to the client so operators can see
// which signal answered.
const (
	SourceEdgeHeader = "edge-header"
	SourceGeoLite    = "geolite2"
	SourceIPAPI      = "ip-api.com"
	SourceIPWhois    = "ipwho.is"
	SourceTimezone   = "timezone"
	SourceLocale     = "locale"
)

// ========================================
// Edge network header
// ========================================

// EdgeHeaderSource decodes the country code an edge network injects into
// requests (e.g. Cloudflare's CF-IPCountry). Code "XX" means the edge did
// not know and counts as a miss.
type EdgeHeaderSource struct{}

func NewEdgeHeaderSource() *EdgeHeaderSource {
	return &EdgeHeaderSource{}
}

func (s *EdgeHeaderSource) Name() string {
	return SourceEdgeHeader
}

func (s *EdgeHeaderSource) Resolve(_ context.Context, req Request) (string, bool) {
	return CountryNameForCode(req.EdgeCountryCode)
}

// ========================================
// Local GeoLite2 database
// ========================================

// GeoLiteSource answers from a local MaxMind GeoLite2 database when one is
// configured. The reader is swappable so the updater job can reload a
// freshly downloaded database without restarting.
type GeoLiteSource struct {
	reader func() *geoip2.Reader
	logger *slog.Logger
}

// NewGeoLiteSource creates a GeoLite2 source. reader may return nil when no
// database is available; the tier then passes.
func NewGeoLiteSource(logger *slog.Logger, reader func() *geoip2.Reader) *GeoLiteSource {
	return &GeoLiteSource{reader: reader, logger: logger}
}

func (s *GeoLiteSource) Name() string {
	return SourceGeoLite
}

func (s *GeoLiteSource) Resolve(_ context.Context, req Request) (string, bool) {
	db := s.reader()
	if db == nil {
		return "", false
	}

	ip := net.ParseIP(req.IP)
	if ip == nil || !isPublicIP(ip) {
		return "", false
	}

	record, err := db.Country(ip)
	if err != nil {
		s.logger.Warn("GeoLite2 lookup failed",
			slog.String("ip", req.IP),
			slog.Any("error", err))
		return "", false
	}

	if name := record.Country.Names["en"]; name != "" {
		return name, true
	}
	return CountryNameForCode(record.Country.IsoCode)
}

// ========================================
// Remote geo-IP providers
// ========================================

// IPAPISource queries the free ip-api.com service. Non-200 responses,
// timeouts and failed lookups are misses, never errors.
type IPAPISource struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// ipAPIResponse is the subset of the ip-api.com JSON response we read.
type ipAPIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
}

// NewIPAPISource creates an ip-api.com source with a bounded timeout.
func NewIPAPISource(logger *slog.Logger, timeout time.Duration) *IPAPISource {
	return &IPAPISource{
		client:  &http.Client{Timeout: timeout},
		baseURL: "http://ip-api.com/json",
		logger:  logger,
	}
}

func (s *IPAPISource) Name() string {
	return SourceIPAPI
}

func (s *IPAPISource) Resolve(ctx context.Context, req Request) (string, bool) {
	ip := net.ParseIP(req.IP)
	if ip == nil || !isPublicIP(ip) {
		return "", false
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country", s.baseURL, req.IP)

	var result ipAPIResponse
	if err := fetchJSON(ctx, s.client, url, &result); err != nil {
		s.logger.Warn("ip-api.com lookup failed",
			slog.String("ip", req.IP),
			slog.Any("error", err))
		return "", false
	}

	if result.Status != "success" || result.Country == "" {
		return "", false
	}
	return result.Country, true
}

// IPWhoisSource queries ipwho.is as an independent second provider, under
// the same timeout and miss discipline as the first.
type IPWhoisSource struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

type ipWhoisResponse struct {
	Success bool   `json:"success"`
	Country string `json:"country"`
}

// NewIPWhoisSource creates an ipwho.is source with a bounded timeout.
func NewIPWhoisSource(logger *slog.Logger, timeout time.Duration) *IPWhoisSource {
	return &IPWhoisSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://ipwho.is",
		logger:  logger,
	}
}

func (s *IPWhoisSource) Name() string {
	return SourceIPWhois
}

func (s *IPWhoisSource) Resolve(ctx context.Context, req Request) (string, bool) {
	ip := net.ParseIP(req.IP)
	if ip == nil || !isPublicIP(ip) {
		return "", false
	}

	url := fmt.Sprintf("%s/%s?fields=success,country", s.baseURL, req.IP)

	var result ipWhoisResponse
	if err := fetchJSON(ctx, s.client, url, &result); err != nil {
		s.logger.Warn("ipwho.is lookup failed",
			slog.String("ip", req.IP),
			slog.Any("error", err))
		return "", false
	}

	if !result.Success || result.Country == "" {
		return "", false
	}
	return result.Country, true
}

// ========================================
// Browser hints
// ========================================

// TimezoneSource derives a country from the browser's IANA timezone via a
// fixed lookup table. Only fires when the client forwarded the hint.
type TimezoneSource struct{}

func NewTimezoneSource() *TimezoneSource {
	return &TimezoneSource{}
}

func (s *TimezoneSource) Name() string {
	return SourceTimezone
}

func (s *TimezoneSource) Resolve(_ context.Context, req Request) (string, bool) {
	if req.Timezone == "" {
		return "", false
	}
	return countryForTimezone(req.Timezone)
}

// LocaleSource derives a country from the two-letter region subtag of the
// browser's negotiated locale. The weakest signal, so it sits last.
type LocaleSource struct{}

func NewLocaleSource() *LocaleSource {
	return &LocaleSource{}
}

func (s *LocaleSource) Name() string {
	return SourceLocale
}

func (s *LocaleSource) Resolve(_ context.Context, req Request) (string, bool) {
	return countryForLocale(req.Locale)
}

// ========================================
// Shared helpers
// ========================================

// fetchJSON performs a GET with the request context and decodes the JSON body.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isPublicIP reports whether the address is routable. Private, loopback and
// link-local addresses cannot be geolocated and skip the IP tiers.
func isPublicIP(ip net.IP) bool {
	if ip.IsUnspecified() || ip.IsLoopback() || ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}

// Package geo resolves a best-effort country name for a visitor.
//
// No single geolocation signal is dependable: edge headers are only present
// behind certain networks, free geo-IP providers rate-limit or time out, and
// browser hints can be absent or wrong. The resolver therefore walks an
// ordered chain of sources and short-circuits on the first answer. It never
// returns an error; total failure yields the sentinel "Unknown".
package geo

import (
	"context"
	"log/slog"
)

// CountryUnknown is returned when no source can resolve a country.
const CountryUnknown = "Unknown"

// SourceFallback labels a Result that no source answered.
const SourceFallback = "fallback"

// Request carries the signals available for one resolution attempt.
// Zero-valued fields simply cause the corresponding tiers to pass.
type Request struct {
	// EdgeCountryCode is the ISO 3166-1 alpha-2 code injected by an edge
	// network (e.g. the CF-IPCountry header). "XX" means the edge could
	// not determine the country.
	EdgeCountryCode string

	// IP is the client address used by the database and remote tiers.
	IP string

	// Timezone is the browser's IANA timezone, forwarded by the client.
	Timezone string

	// Locale is the browser's negotiated locale (e.g. "en-IN"),
	// forwarded by the client.
	Locale string
}

// Result is the outcome of a resolution: the country name and which
// source answered.
type Result struct {
	Country string `json:"country"`
	Source  string `json:"source"`
}

// Source is one tier of the fallback chain. Resolve reports the country
// name and whether this tier could answer; a miss is not an error.
type Source interface {
	Name() string
	Resolve(ctx context.Context, req Request) (string, bool)
}

// Resolver walks an ordered list of sources.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

// NewResolver creates a resolver that tries the given sources in order.
func NewResolver(logger *slog.Logger, sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		logger:  logger,
	}
}

// Resolve returns the first answer from the chain, or the Unknown sentinel.
// It never fails.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	for _, source := range r.sources {
		country, ok := source.Resolve(ctx, req)
		if ok && country != "" {
			r.logger.Debug("Resolved country",
				slog.String("country", country),
				slog.String("source", source.Name()))
			return Result{Country: country, Source: source.Name()}
		}
	}

	return Result{Country: CountryUnknown, Source: SourceFallback}
}

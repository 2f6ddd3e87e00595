package geo

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/pariz/gountries"
	"gopkg.in/yaml.v3"
)

//go:embed timezones.yml
var timezoneData []byte

var (
	queryOnce    sync.Once
	countryQuery *gountries.Query

	tzOnce    sync.Once
	tzCountry map[string]string
)

func countries() *gountries.Query {
	queryOnce.Do(func() {
		countryQuery = gountries.New()
	})
	return countryQuery
}

// CountryNameForCode maps an ISO 3166-1 alpha-2 code to its common English
// name. Returns false for empty, unknown, or the "XX" placeholder code.
func CountryNameForCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == "XX" {
		return "", false
	}

	country, err := countries().FindCountryByAlpha(code)
	if err != nil {
		return "", false
	}
	return country.Name.Common, true
}

// countryForTimezone maps an IANA timezone name to a country name using the
// embedded lookup table. The table covers common zones only; a miss just
// passes the chain on to the next tier.
func countryForTimezone(tz string) (string, bool) {
	tzOnce.Do(func() {
		tzCountry = make(map[string]string)
		if err := yaml.Unmarshal(timezoneData, &tzCountry); err != nil {
			tzCountry = map[string]string{}
		}
	})

	name, ok := tzCountry[strings.TrimSpace(tz)]
	return name, ok && name != ""
}

// countryForLocale extracts the region subtag from a BCP 47 locale
// ("en-IN" -> "IN") and decodes it to a country name.
func countryForLocale(locale string) (string, bool) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "", false
	}

	parts := strings.Split(strings.ReplaceAll(locale, "_", "-"), "-")
	for _, part := range parts[1:] {
		if len(part) == 2 {
			if name, ok := CountryNameForCode(part); ok {
				return name, true
			}
		}
	}
	return "", false
}

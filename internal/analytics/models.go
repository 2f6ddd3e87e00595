// Package analytics defines the raw tracking tables and the daily rollup.
//
// Ownership is strict: the tracker creates page_views and user_sessions
// rows, the aggregation job owns daily_summaries exclusively, and nothing
// in this package ever deletes raw rows (retention is an external concern).
package analytics

import (
	"encoding/json"
	"time"
)

// ReferrerDirect is stored when a page view arrives with no referrer.
const ReferrerDirect = "direct"

// PageView is one row per rendered page per visitor session.
// DurationSeconds is null at creation and backfilled at most once when the
// page is left; rows whose tab closed too fast simply keep a null duration.
type PageView struct {
	ID              uint    `gorm:"primaryKey;autoIncrement"`
	SessionID       string  `gorm:"index;size:64;not null"`
	UserID          *string `gorm:"index"`
	PageURL         string  `gorm:"index;not null"`
	PageTitle       string
	Referrer        string
	UserAgent       string
	Country         string
	DeviceType      string
	Browser         string
	DurationSeconds *int
	CreatedAt       time.Time `gorm:"index"`
}

// UserSession is one row per browser session. The first page view creates
// it; every later page view in the same session updates LastPage and bumps
// TotalPages. The counter is best-effort: concurrent tabs may undercount.
type UserSession struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	SessionID  string  `gorm:"uniqueIndex;size:64;not null"`
	UserID     *string `gorm:"index"`
	UserAgent  string
	FirstPage  string
	LastPage   string
	TotalPages int `gorm:"not null;default:0"`
	Country    string
	DeviceType string
	Browser    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CountryCount is one entry of a daily country ranking.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// ReferrerCount is one entry of a daily traffic source ranking. Source is
// the normalized friendly name, not the raw referrer URL.
type ReferrerCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// DailySummary is the per-calendar-date rollup, exactly one row per date.
// The aggregation job replaces the whole row on re-runs.
type DailySummary struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement"`
	Date               time.Time `gorm:"uniqueIndex;type:date;not null"`
	TotalPageViews     int64     `gorm:"not null;default:0"`
	UniqueVisitors     int64     `gorm:"not null;default:0"`
	AvgDurationSeconds float64   `gorm:"not null;default:0"`
	BounceRate         float64   `gorm:"not null;default:0"`
	TopCountries       string    `gorm:"type:text"`
	TopReferrers       string    `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CountryRanking decodes the stored TopCountries JSON. An empty or
// malformed field decodes to an empty ranking.
func (s *DailySummary) CountryRanking() []CountryCount {
	if s.TopCountries == "" {
		return nil
	}
	var ranking []CountryCount
	if err := json.Unmarshal([]byte(s.TopCountries), &ranking); err != nil {
		return nil
	}
	return ranking
}

// ReferrerRanking decodes the stored TopReferrers JSON, with the same
// lenient contract as CountryRanking.
func (s *DailySummary) ReferrerRanking() []ReferrerCount {
	if s.TopReferrers == "" {
		return nil
	}
	var ranking []ReferrerCount
	if err := json.Unmarshal([]byte(s.TopReferrers), &ranking); err != nil {
		return nil
	}
	return ranking
}

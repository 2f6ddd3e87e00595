package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"courselytics/internal/analytics"
	"courselytics/internal/testsupport"
)

func intPtr(v int) *int { return &v }

func insertPageView(t *testing.T, db *gorm.DB, sessionID, country string, createdAt time.Time, duration *int) {
	t.Helper()
	pv := analytics.PageView{
		SessionID:       sessionID,
		PageURL:         "/courses",
		Referrer:        analytics.ReferrerDirect,
		UserAgent:       "Mozilla/5.0 (test)",
		Country:         country,
		DeviceType:      "desktop",
		Browser:         "Chrome",
		DurationSeconds: duration,
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(&pv).Error)
}

func TestAggregateDayMetrics(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	noon := day.Add(12 * time.Hour)

	// Session A bounces (one page view); session B views three pages.
	insertPageView(t, db, "session-a", "India", noon, intPtr(10))
	insertPageView(t, db, "session-b", "Germany", noon.Add(time.Minute), nil)
	insertPageView(t, db, "session-b", "Germany", noon.Add(2*time.Minute), intPtr(30))
	insertPageView(t, db, "session-b", "Germany", noon.Add(3*time.Minute), nil)

	// Outside the day boundary: previous day and next-day start.
	insertPageView(t, db, "session-c", "France", day.Add(-time.Hour), intPtr(500))
	insertPageView(t, db, "session-c", "France", day.Add(24*time.Hour), intPtr(500))

	summary, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	assert.EqualValues(t, 4, summary.TotalPageViews)
	assert.EqualValues(t, 2, summary.UniqueVisitors)

	// Null durations are excluded from the average: mean of {10, 30}.
	assert.InDelta(t, 20.0, summary.AvgDurationSeconds, 0.001)

	// One of two sessions bounced.
	assert.InDelta(t, 50.0, summary.BounceRate, 0.001)

	ranking := summary.CountryRanking()
	require.Len(t, ranking, 2)
	assert.Equal(t, analytics.CountryCount{Country: "Germany", Count: 3}, ranking[0])
	assert.Equal(t, analytics.CountryCount{Country: "India", Count: 1}, ranking[1])
}

func TestAggregateDayIsIdempotent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	insertPageView(t, db, "session-a", "Spain", day.Add(9*time.Hour), intPtr(15))
	insertPageView(t, db, "session-a", "Spain", day.Add(10*time.Hour), nil)

	first, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	second, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&analytics.DailySummary{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	assert.Equal(t, first.TotalPageViews, second.TotalPageViews)
	assert.Equal(t, first.UniqueVisitors, second.UniqueVisitors)
	assert.Equal(t, first.AvgDurationSeconds, second.AvgDurationSeconds)
	assert.Equal(t, first.BounceRate, second.BounceRate)
	assert.Equal(t, first.TopCountries, second.TopCountries)
	assert.Equal(t, first.TopReferrers, second.TopReferrers)
}

func TestAggregateDayOverwritesStaleSummary(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	insertPageView(t, db, "session-a", "Spain", day.Add(9*time.Hour), nil)

	_, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	// Late-arriving rows for the same day, then a backfill re-run.
	insertPageView(t, db, "session-b", "Peru", day.Add(11*time.Hour), intPtr(60))

	summary, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.TotalPageViews)
	assert.EqualValues(t, 2, summary.UniqueVisitors)

	stored, err := analytics.SummaryForDate(db, day)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.TotalPageViews)
}

func TestAggregateDayWithNoTraffic(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	summary, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalPageViews)
	assert.Zero(t, summary.UniqueVisitors)
	assert.Zero(t, summary.AvgDurationSeconds)
	assert.Zero(t, summary.BounceRate)
	assert.Empty(t, summary.CountryRanking())

	// The zeroed row is still persisted for the date.
	stored, err := analytics.SummaryForDate(db, day)
	require.NoError(t, err)
	assert.Zero(t, stored.TotalPageViews)
}

func TestReferrerRankingNormalizesSources(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	refs := []string{
		analytics.ReferrerDirect,
		analytics.ReferrerDirect,
		analytics.ReferrerDirect,
		"https://www.google.com/search?q=go+course",
		"https://google.co.in/url?q=x",
		"https://news.ycombinator.com/item?id=1",
	}
	for i, ref := range refs {
		pv := analytics.PageView{
			SessionID: "session-a",
			PageURL:   "/courses",
			Referrer:  ref,
			CreatedAt: day.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&pv).Error)
	}

	summary, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	ranking := summary.ReferrerRanking()
	require.Len(t, ranking, 3)
	assert.Equal(t, analytics.ReferrerCount{Source: "Direct", Count: 3}, ranking[0])
	assert.Equal(t, analytics.ReferrerCount{Source: "Google", Count: 2}, ranking[1])
	assert.Equal(t, analytics.ReferrerCount{Source: "Hacker News", Count: 1}, ranking[2])
}

func TestCountryRankingRoundTrip(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	countries := map[string]int{"India": 5, "Germany": 3, "Brazil": 3, "Unknown": 1}
	i := 0
	for country, count := range countries {
		for j := 0; j < count; j++ {
			insertPageView(t, db, "session-"+country, country, day.Add(time.Duration(i)*time.Minute), nil)
			i++
		}
	}

	_, err := analytics.AggregateDay(context.Background(), db, logger, day)
	require.NoError(t, err)

	stored, err := analytics.SummaryForDate(db, day)
	require.NoError(t, err)

	ranking := stored.CountryRanking()
	require.Len(t, ranking, 4)

	// Descending by count; ties survive with a stable name order.
	assert.Equal(t, "India", ranking[0].Country)
	assert.EqualValues(t, 5, ranking[0].Count)
	assert.Equal(t, "Brazil", ranking[1].Country)
	assert.Equal(t, "Germany", ranking[2].Country)
	assert.Equal(t, "Unknown", ranking[3].Country)
	for i := 1; i < len(ranking); i++ {
		assert.LessOrEqual(t, ranking[i].Count, ranking[i-1].Count)
	}
}

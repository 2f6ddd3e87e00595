package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"courselytics/internal/pkg/async"
	"courselytics/internal/pkg/referrers"
)

// DayBounds returns the inclusive start and exclusive end of the calendar
// day containing t, in t's own location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// summaryDate normalizes a timestamp to the canonical stored key for its
// calendar date. Summaries are keyed by date, not by instant.
func summaryDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateDay computes the daily summary for the calendar day containing
// target and upserts exactly one daily_summaries row for that date. The
// independent metric queries fan out over a worker pool.
//
// The write is a single atomic upsert of the fully computed record, so a
// failure partway through the reads never leaves a partial row, and
// re-running for the same date replaces the row instead of duplicating it.
// Unlike the tracker path, errors here propagate: the caller is a scheduler
// or an operator, and silent failure would corrupt reporting.
func AggregateDay(ctx context.Context, db *gorm.DB, logger *slog.Logger, target time.Time) (*DailySummary, error) {
	dayStart, dayEnd := DayBounds(target)

	tasks := []async.Task{
		{
			Name: "pageViews",
			Execute: func() (any, error) {
				var total int64
				err := db.Model(&PageView{}).
					Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
					Count(&total).Error
				return total, err
			},
		},
		{
			Name: "visitors",
			Execute: func() (any, error) {
				var visitors int64
				err := db.Model(&PageView{}).
					Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
					Distinct("session_id").
					Count(&visitors).Error
				return visitors, err
			},
		},
		{
			// Average over recorded durations only. Rows whose duration was
			// never backfilled are excluded, not counted as zero.
			Name: "avgDuration",
			Execute: func() (any, error) {
				var avg sql.NullFloat64
				err := db.Model(&PageView{}).
					Where("created_at >= ? AND created_at < ? AND duration_seconds IS NOT NULL", dayStart, dayEnd).
					Select("AVG(duration_seconds)").
					Scan(&avg).Error
				return avg, err
			},
		},
		{
			Name: "topCountries",
			Execute: func() (any, error) {
				return computeCountryRanking(db, dayStart, dayEnd)
			},
		},
		{
			Name: "topReferrers",
			Execute: func() (any, error) {
				return computeReferrerRanking(db, dayStart, dayEnd)
			},
		},
	}

	pool := async.NewPool(4)
	results := pool.Execute(ctx, tasks)

	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			return nil, fmt.Errorf("aggregation query %s did not complete: %w", task.Name, ctx.Err())
		}
		if result.Err != nil {
			return nil, fmt.Errorf("aggregation query %s failed: %w", task.Name, result.Err)
		}
	}

	totalPageViews := results["pageViews"].Data.(int64)
	uniqueVisitors := results["visitors"].Data.(int64)
	avgDuration := results["avgDuration"].Data.(sql.NullFloat64)
	topCountries := results["topCountries"].Data.([]CountryCount)
	topReferrers := results["topReferrers"].Data.([]ReferrerCount)

	bounceRate, err := computeBounceRate(db, dayStart, dayEnd, uniqueVisitors)
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:           summaryDate(target),
		TotalPageViews: totalPageViews,
		UniqueVisitors: uniqueVisitors,
		BounceRate:     bounceRate,
	}
	if avgDuration.Valid {
		summary.AvgDurationSeconds = avgDuration.Float64
	}

	rankedCountries, err := json.Marshal(topCountries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode country ranking: %w", err)
	}
	summary.TopCountries = string(rankedCountries)

	rankedReferrers, err := json.Marshal(topReferrers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode referrer ranking: %w", err)
	}
	summary.TopReferrers = string(rankedReferrers)

	if err := upsertSummary(db, summary); err != nil {
		return nil, err
	}

	logger.Info("Aggregated daily summary",
		slog.Time("date", summary.Date),
		slog.Int64("page_views", summary.TotalPageViews),
		slog.Int64("unique_visitors", summary.UniqueVisitors),
		slog.Float64("bounce_rate", summary.BounceRate))

	return summary, nil
}

// computeBounceRate returns the percentage of that day's sessions that
// viewed exactly one page. Sessions and visitors are the same unit here:
// a returning visitor on two days counts once per day.
func computeBounceRate(db *gorm.DB, dayStart, dayEnd time.Time, totalSessions int64) (float64, error) {
	if totalSessions == 0 {
		return 0, nil
	}

	var bounced int64
	query := `
		SELECT COUNT(*) FROM (
			SELECT session_id
			FROM page_views
			WHERE created_at >= ? AND created_at < ?
			GROUP BY session_id
			HAVING COUNT(*) = 1
		)
	`
	if err := db.Raw(query, dayStart, dayEnd).Scan(&bounced).Error; err != nil {
		return 0, fmt.Errorf("failed to count bounced sessions: %w", err)
	}

	return float64(bounced) / float64(totalSessions) * 100, nil
}

// computeCountryRanking returns (country, count) pairs sorted descending by
// count. Ties are kept and ordered by name so the ranking is deterministic.
func computeCountryRanking(db *gorm.DB, dayStart, dayEnd time.Time) ([]CountryCount, error) {
	results := []CountryCount{}
	query := `
		SELECT country, COUNT(*) AS count
		FROM page_views
		WHERE created_at >= ? AND created_at < ?
		GROUP BY country
		ORDER BY count DESC, country ASC
	`
	if err := db.Raw(query, dayStart, dayEnd).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to rank countries: %w", err)
	}
	return results, nil
}

// computeReferrerRanking buckets that day's page views by normalized
// traffic source. The fold happens in Go because different raw referrer
// URLs collapse into one bucket.
func computeReferrerRanking(db *gorm.DB, dayStart, dayEnd time.Time) ([]ReferrerCount, error) {
	raw := []struct {
		Referrer string
		Count    int64
	}{}
	query := `
		SELECT referrer, COUNT(*) AS count
		FROM page_views
		WHERE created_at >= ? AND created_at < ?
		GROUP BY referrer
	`
	if err := db.Raw(query, dayStart, dayEnd).Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("failed to rank referrers: %w", err)
	}

	buckets := make(map[string]int64)
	for _, row := range raw {
		buckets[referrers.FromURL(row.Referrer)] += row.Count
	}

	ranking := make([]ReferrerCount, 0, len(buckets))
	for source, count := range buckets {
		ranking = append(ranking, ReferrerCount{Source: source, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Source < ranking[j].Source
	})
	return ranking, nil
}

// upsertSummary writes the summary in one statement keyed by date.
func upsertSummary(db *gorm.DB, summary *DailySummary) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO daily_summaries
			(date, total_page_views, unique_visitors, avg_duration_seconds, bounce_rate, top_countries, top_referrers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			total_page_views = excluded.total_page_views,
			unique_visitors = excluded.unique_visitors,
			avg_duration_seconds = excluded.avg_duration_seconds,
			bounce_rate = excluded.bounce_rate,
			top_countries = excluded.top_countries,
			top_referrers = excluded.top_referrers,
			updated_at = excluded.updated_at
	`
	err := db.Exec(query,
		summary.Date, summary.TotalPageViews, summary.UniqueVisitors,
		summary.AvgDurationSeconds, summary.BounceRate,
		summary.TopCountries, summary.TopReferrers,
		now, now).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// SummaryForDate loads the stored summary row for the calendar date of t.
func SummaryForDate(db *gorm.DB, t time.Time) (*DailySummary, error) {
	var summary DailySummary
	err := db.Where("date = ?", summaryDate(t)).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

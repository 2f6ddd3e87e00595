package jobs

import (
	"context"
	"log/slog"
	"time"

	"courselytics/internal/analytics"
	"courselytics/internal/database"
)

// DailyAggregationJob rolls raw page views up into one summary row per
// calendar date. Runs are idempotent, so the scheduler can call it as
// often as it likes without double-counting.
type DailyAggregationJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewDailyAggregationJob(dbManager *database.DBManager, logger *slog.Logger) *DailyAggregationJob {
	return &DailyAggregationJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run aggregates yesterday, the most recent completed day. Errors
// propagate so the scheduler logs them and an external trigger can retry.
func (j *DailyAggregationJob) Run() error {
	yesterday := time.Now().AddDate(0, 0, -1)
	return j.RunForDate(yesterday)
}

// RunForDate aggregates a specific calendar date, for operator backfills.
func (j *DailyAggregationJob) RunForDate(target time.Time) error {
	db := j.dbManager.GetConnection()

	summary, err := analytics.AggregateDay(context.Background(), db, j.logger, target)
	if err != nil {
		j.logger.Error("Daily aggregation failed",
			slog.Time("date", target),
			slog.Any("error", err))
		return err
	}

	j.logger.Info("Daily aggregation completed",
		slog.Time("date", summary.Date),
		slog.Int64("page_views", summary.TotalPageViews))
	return nil
}

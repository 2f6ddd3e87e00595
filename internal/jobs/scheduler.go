// Package jobs runs the background work: the daily rollup and the
// GeoLite database refresh.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"courselytics/internal/config"
	"courselytics/internal/database"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	aggregationJob *DailyAggregationJob
	geoLiteJob     *GeoLiteUpdaterJob

	// Tickers for each job type
	aggregationTicker *time.Ticker
	geoLiteTicker     *time.Ticker
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
	}

	// Initialize job instances
	s.aggregationJob = NewDailyAggregationJob(dbManager, logger)
	s.geoLiteJob = NewGeoLiteUpdaterJob(logger, cfg)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	s.startAggregationJob()
	s.startGeoLiteJob()

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startAggregationJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting daily aggregation job", slog.Duration("interval", interval))
	s.aggregationTicker = time.NewTicker(interval)

	go func() {
		// Run initial execution so yesterday is covered right after boot
		s.executeJobSafely("daily_aggregation", s.aggregationJob.Run)

		for {
			select {
			case <-s.aggregationTicker.C:
				s.executeJobSafely("daily_aggregation", s.aggregationJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Daily aggregation job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startGeoLiteJob() {
	interval := 24 * time.Hour
	s.logger.Info("Starting GeoLite updater job", slog.Duration("interval", interval))
	s.geoLiteTicker = time.NewTicker(interval)

	go func() {
		if err := s.geoLiteJob.Run(); err != nil {
			s.logger.Error("Error in initial GeoLite update", slog.Any("error", err))
		}

		for {
			select {
			case <-s.geoLiteTicker.C:
				if err := s.geoLiteJob.Run(); err != nil {
					s.logger.Error("Error in GeoLite updater job", slog.Any("error", err))
				}
			case <-s.ctx.Done():
				s.logger.Info("GeoLite updater job stopped")
				return
			}
		}
	}()
}

// Stop halts all background jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.aggregationTicker != nil {
		s.aggregationTicker.Stop()
	}
	if s.geoLiteTicker != nil {
		s.geoLiteTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// AggregateNow allows manual triggering of the daily aggregation.
func (s *Scheduler) AggregateNow() error {
	if !s.enabled {
		return nil
	}
	return s.aggregationJob.Run()
}

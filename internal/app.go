package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"courselytics/internal/config"
	"courselytics/internal/database"
	"courselytics/internal/geo"
	"courselytics/internal/http"
	"courselytics/internal/jobs"
	"courselytics/internal/logger"
	"courselytics/internal/pkg/geoip"
	"courselytics/internal/tracker"
)

// Application wires the collector together: config, database, geo chain,
// tracker, HTTP surface and background jobs.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Tracker   *tracker.Tracker
	Scheduler *jobs.Scheduler

	server *fiber.App
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	log := logger.New(cfg)

	dbManager := database.NewDBManager(cfg, log)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geoip.InitLogger(log)
	geoip.InitGeoDB()

	resolver := NewGeoResolver(cfg, log)
	tr := tracker.New(dbManager.GetConnection(), resolver, log)

	scheduler, err := jobs.NewScheduler(dbManager, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	server := fiber.New(fiber.Config{
		AppName:               cfg.GetAppName(),
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	MountRoutes(server, cfg, http.NewHandlers(cfg, dbManager.GetConnection(), tr, resolver, log))

	return &Application{
		Config:    cfg,
		Logger:    log,
		DBManager: dbManager,
		Tracker:   tr,
		Scheduler: scheduler,
		server:    server,
	}, nil
}

// NewGeoResolver builds the country resolution chain in priority order:
// edge header, local GeoLite2 database, remote IP providers, then the
// browser hints.
func NewGeoResolver(cfg *config.Config, log *slog.Logger) *geo.Resolver {
	timeout := time.Duration(cfg.GetGeoHTTPTimeout()) * time.Second
	return geo.NewResolver(log,
		geo.NewEdgeHeaderSource(),
		geo.NewGeoLiteSource(log, geoip.GetGeoDB),
		geo.NewIPAPISource(log, timeout),
		geo.NewIPWhoisSource(log, timeout),
		geo.NewTimezoneSource(),
		geo.NewLocaleSource(),
	)
}

// StartAsync launches the background jobs and the HTTP listener without
// blocking. Listener failures after startup are logged; the process keeps
// running so the caller's signal handling stays in charge of shutdown.
func (a *Application) StartAsync() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start jobs: %w", err)
	}

	a.Logger.Info("Starting HTTP server", slog.String("port", a.Config.GetPort()))
	go func() {
		if err := a.server.Listen(":" + a.Config.GetPort()); err != nil {
			a.Logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	return nil
}

// Shutdown stops background jobs, drains the HTTP server and closes the
// database.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()

	if err := a.server.ShutdownWithContext(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	return a.DBManager.Close()
}

// Server exposes the fiber app for tests driving requests with app.Test.
func (a *Application) Server() *fiber.App {
	return a.server
}

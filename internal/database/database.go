// Package database manages the SQLite connection and schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"courselytics/internal/analytics"
	"courselytics/internal/config"
)

// DBManager owns the GORM connection and application migrations.
type DBManager struct {
	cfg    *config.Config
	logger *slog.Logger

	mu sync.RWMutex
	db *gorm.DB
}

// NewDBManager creates a new database manager.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the database connection with WAL journaling and a busy timeout.
func (dm *DBManager) Init() error {
	if dir := filepath.Dir(dm.cfg.GetDatabasePath()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate",
		dm.cfg.GetDatabasePath())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(dm.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(dm.cfg.GetMaxIdleConns())

	dm.mu.Lock()
	dm.db = db
	dm.mu.Unlock()

	dm.logger.Info("Database connection initialized",
		slog.String("path", dm.cfg.GetDatabasePath()))
	return nil
}

// GetConnection returns the active GORM connection, or nil before Init.
func (dm *DBManager) GetConnection() *gorm.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

// MigrateDatabase runs the application migrations.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	// Run migrations in a transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&analytics.PageView{},
			&analytics.UserSession{},
			&analytics.DailySummary{},
		)
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	dm.logger.Info("Database migration completed successfully")
	return nil
}

// Close closes the underlying connection pool.
func (dm *DBManager) Close() error {
	db := dm.GetConnection()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

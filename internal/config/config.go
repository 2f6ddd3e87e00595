// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	Domain      string   `mapstructure:"domain"`

	// Secret for the aggregation trigger endpoint (bearer token)
	AggregateSecret string `mapstructure:"aggregatesecret"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	GeoDBPath    string `mapstructure:"geodbpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Geo resolution settings
	GeoHTTPTimeoutSeconds int    `mapstructure:"geohttptimeoutseconds"`
	GeoLiteAccountID      string `mapstructure:"geoliteaccountid"`
	GeoLiteLicenseKey     string `mapstructure:"geolitelicensekey"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "courselytics")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-Country.mmdb")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("geohttptimeoutseconds", 3)
		v.SetDefault("jobintervalseconds", 60)

		// Bind environment variables
		v.BindEnv("appname", "COURSELYTICS_APP_NAME")
		v.BindEnv("appport", "COURSELYTICS_APP_PORT")
		v.BindEnv("environment", "COURSELYTICS_ENV")
		v.BindEnv("loglevel", "COURSELYTICS_LOG_LEVEL")
		v.BindEnv("domain", "COURSELYTICS_DOMAIN")
		v.BindEnv("aggregatesecret", "COURSELYTICS_AGGREGATE_SECRET")
		v.BindEnv("storagepath", "COURSELYTICS_STORAGE_PATH")
		v.BindEnv("geodbpath", "COURSELYTICS_GEO_DB_PATH")
		v.BindEnv("logsdir", "COURSELYTICS_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "COURSELYTICS_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "COURSELYTICS_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "COURSELYTICS_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "COURSELYTICS_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "COURSELYTICS_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "COURSELYTICS_DB_MAX_IDLE_CONNS")
		v.BindEnv("geohttptimeoutseconds", "COURSELYTICS_GEO_HTTP_TIMEOUT_SECONDS")
		v.BindEnv("geoliteaccountid", "COURSELYTICS_GEOLITE_ACCOUNT_ID")
		v.BindEnv("geolitelicensekey", "COURSELYTICS_GEOLITE_LICENSE_KEY")
		v.BindEnv("jobintervalseconds", "COURSELYTICS_JOB_INTERVAL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		// Validate
		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()

		// The aggregation trigger must not be open in production
		if cfg.IsProduction() && cfg.AggregateSecret == "" {
			log.Fatal("Production requires COURSELYTICS_AGGREGATE_SECRET to be set")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port.
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetAppName returns the application name.
func (c *Config) GetAppName() string {
	return c.AppName
}

// GetGeoHTTPTimeout returns the timeout for remote geo-IP provider lookups in seconds.
func (c *Config) GetGeoHTTPTimeout() int {
	if c.GeoHTTPTimeoutSeconds <= 0 {
		return 3
	}
	return c.GeoHTTPTimeoutSeconds
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for test stability with shared in-memory databases)
// - Development/Production: 10 (allows tracker writes alongside rollup reads)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}
	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment.
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}
	return 5
}

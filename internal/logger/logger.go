// Package logger builds the application's structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"courselytics/internal/config"
)

// New creates a slog.Logger configured for the given environment.
// Production logs JSON to a rotated file and stdout; development and test
// log human-readable text to stdout only.
func New(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	if !cfg.IsProduction() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
		MaxSize:    cfg.LogsMaxSizeInMb,
		MaxBackups: cfg.LogsMaxBackups,
		MaxAge:     cfg.LogsMaxAgeInDays,
		Compress:   true,
	}

	out := io.MultiWriter(os.Stdout, rotated)
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

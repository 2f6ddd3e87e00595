package http

import (
	"log/slog"

	"gorm.io/gorm"

	"courselytics/internal/config"
	"courselytics/internal/geo"
	"courselytics/internal/tracker"
)

// Handlers bundles the dependencies the HTTP surface needs. Route
// registration lives in internal/routes.go; each handler file covers one
// endpoint group.
type Handlers struct {
	cfg      *config.Config
	db       *gorm.DB
	tracker  *tracker.Tracker
	resolver *geo.Resolver
	logger   *slog.Logger
}

func NewHandlers(
	cfg *config.Config,
	db *gorm.DB,
	tr *tracker.Tracker,
	resolver *geo.Resolver,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		db:       db,
		tracker:  tr,
		resolver: resolver,
		logger:   logger,
	}
}

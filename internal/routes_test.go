package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"courselytics/internal/config"
	"courselytics/internal/http"
	"courselytics/internal/testsupport"
	"courselytics/internal/tracker"
)

func newRouterForTest(t *testing.T) *fiber.App {
	t.Helper()

	db := testsupport.SetupTestDB(t)
	logger := testsupport.Logger()
	cfg := &config.Config{Environment: config.Test}

	resolver := NewGeoResolver(cfg, logger)
	tr := tracker.New(db, resolver, logger)

	app := fiber.New()
	MountRoutes(app, cfg, http.NewHandlers(cfg, db, tr, resolver, logger))
	return app
}

func TestAllEndpointsRegistered(t *testing.T) {
	app := newRouterForTest(t)
	routes := app.GetRoutes(true)

	expected := []struct {
		method string
		path   string
	}{
		{fiber.MethodGet, "/health"},
		{fiber.MethodGet, "/api/v1/geo"},
		{fiber.MethodPost, "/api/v1/track"},
		{fiber.MethodPost, "/api/v1/track/duration"},
		{fiber.MethodPost, "/api/v1/aggregate"},
	}

	for _, want := range expected {
		found := false
		for _, route := range routes {
			if route.Method == want.method && route.Path == want.path {
				found = true
				break
			}
		}
		require.Truef(t, found, "expected %s %s to be registered", want.method, want.path)
	}
}

func TestTrackRouteRateLimited(t *testing.T) {
	app := newRouterForTest(t)
	routes := app.GetRoutes(true)

	var trackRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodPost && route.Path == "/api/v1/track" {
			trackRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, trackRoute, "expected track route to be registered")

	// The rate limiter is wrapped in a conditional function that only
	// applies in production. In test environment it passes through, but
	// the wrapper still sits in the handler chain.
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range trackRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for track route, handlers: %v", handlerNames)
}

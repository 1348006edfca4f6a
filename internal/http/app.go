// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"predpraznik_backend/internal/events"
	"predpraznik_backend/platform/config"
	"predpraznik_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health backs /api/ready (DB ping).
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}

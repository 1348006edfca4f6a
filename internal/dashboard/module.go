// Package dashboard provides the read-only reporting module.
package dashboard

import (
	"time"

	"predpraznik_backend/internal/dashboard/handler"
	"predpraznik_backend/internal/dashboard/repository"
	"predpraznik_backend/internal/dashboard/service"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dashboard module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the dashboard module.
func NewModule(pool *pgxpool.Pool, p policy.Policy, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), p, loc, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes mounts dashboard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/dashboard")
	group.GET("/actions", m.handler.Actions)
	group.GET("/kpis", m.handler.KPIs)
	group.GET("/trends", m.handler.Trends)
	group.GET("/status-distribution", m.handler.StatusDistribution)
}

var _ apphttp.Module = (*Module)(nil)

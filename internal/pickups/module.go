// Package pickups provides the driver pickup batch bounded context module.
package pickups

import (
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/pickups/handler"
	"predpraznik_backend/internal/pickups/repository"
	"predpraznik_backend/internal/pickups/service"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pickups bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the pickups module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, p policy.Policy, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), bus, p, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pickups"
}

// RegisterRoutes mounts pickup routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/pickups")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/start", m.handler.Start)
	group.POST("/:id/items/:itemId/toggle", m.handler.ToggleItem)
	group.POST("/:id/complete", m.handler.Complete)
	group.PUT("/:id/driver", m.handler.AssignDriver)
	group.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)

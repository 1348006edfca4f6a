// Package cycles provides the doormat cycle state machine bounded context module.
package cycles

import (
	"predpraznik_backend/internal/cycles/handler"
	"predpraznik_backend/internal/cycles/ports"
	"predpraznik_backend/internal/cycles/repository"
	"predpraznik_backend/internal/cycles/service"
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cycles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the cycles module.
func NewModule(pool *pgxpool.Pool, companies ports.CompanyPlacement, bus events.Bus, p policy.Policy, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), companies, bus, p, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cycles"
}

// RegisterRoutes mounts cycle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/mat-types", m.handler.MatTypes)

	group := ctx.Protected.Group("/cycles")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Activate)
	group.GET("/:id", m.handler.Get)
	group.GET("/:id/history", m.handler.History)
	group.POST("/:id/place", m.handler.PlaceOnTest)
	group.POST("/:id/dirty", m.handler.MarkDirty)
	group.POST("/:id/request-pickup", m.handler.RequestPickup)
	group.POST("/:id/contract", m.handler.SignContract)
	group.POST("/:id/extend", m.handler.Extend)
	group.PUT("/:id/notes", m.handler.UpdateNotes)
	group.PUT("/:id/location", m.handler.UpdateLocation)
}

var _ apphttp.Module = (*Module)(nil)

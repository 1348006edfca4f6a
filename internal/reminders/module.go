// Package reminders provides the reminder and contract follow-up module.
package reminders

import (
	"time"

	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/internal/reminders/handler"
	"predpraznik_backend/internal/reminders/ports"
	"predpraznik_backend/internal/reminders/repository"
	"predpraznik_backend/internal/reminders/service"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reminders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the reminders module.
func NewModule(pool *pgxpool.Pool, contracts ports.ContractTracking, bus events.Bus, p policy.Policy, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), contracts, bus, p, loc, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reminders"
}

// RegisterRoutes mounts reminder routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/reminders")
	group.GET("/due", m.handler.Due)
	group.GET("/upcoming", m.handler.Upcoming)
	group.POST("", m.handler.Create)
	group.POST("/:id/complete", m.handler.Complete)
	group.POST("/:id/postpone", m.handler.Postpone)
	group.POST("/:id/postpone-followup", m.handler.PostponeFollowup)

	followups := group.Group("/contract-followups")
	followups.GET("", m.handler.ContractFollowups)
	followups.POST("/:id/called", m.handler.ContractCalled)
	followups.POST("/:id/received", m.handler.ContractReceived)
}

var _ apphttp.Module = (*Module)(nil)

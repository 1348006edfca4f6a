// Package codes provides the QR code registry bounded context module.
package codes

import (
	"predpraznik_backend/internal/codes/handler"
	"predpraznik_backend/internal/codes/repository"
	"predpraznik_backend/internal/codes/service"
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the codes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the codes module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "codes"
}

// Service returns the service layer for external use (CLI).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts code routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/codes")
	group.GET("", m.handler.List)
	group.POST("/batches", m.handler.GenerateBatch)
	group.GET("/:code", m.handler.Get)
	group.GET("/:code/qr.png", m.handler.QR)
	group.PUT("/:code/owner", m.handler.AssignOwner)
	group.DELETE("/:code", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)

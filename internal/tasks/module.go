// Package tasks provides the salesperson kanban board module.
package tasks

import (
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/tasks/handler"
	"predpraznik_backend/internal/tasks/repository"
	"predpraznik_backend/internal/tasks/service"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tasks bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the tasks module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/tasks")
	group.GET("/board", m.handler.Board)
	group.POST("", m.handler.Create)
	group.PUT("/order", m.handler.Reorder)
	group.PATCH("/:id", m.handler.Update)
	group.POST("/:id/move", m.handler.Move)
	group.POST("/:id/archive", m.handler.Archive)
	group.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)

// Package companies provides the CRM companies bounded context module.
package companies

import (
	"predpraznik_backend/internal/companies/handler"
	"predpraznik_backend/internal/companies/repository"
	"predpraznik_backend/internal/companies/service"
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the companies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule creates and initializes the companies module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "companies"
}

// Repository exposes the repository for transactional adapters used by other modules.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts company routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/companies")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id", m.handler.Update)
	group.PUT("/:id/pipeline", m.handler.UpdatePipeline)
	group.POST("/:id/contacts", m.handler.AddContact)
	group.PUT("/:id/contacts/:contactId", m.handler.UpdateContact)
	group.DELETE("/:id/contacts/:contactId", m.handler.DeleteContact)
}

var _ apphttp.Module = (*Module)(nil)

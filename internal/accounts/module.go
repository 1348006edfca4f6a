// Package accounts provides administrative account management on top of the
// privileged admin functions.
package accounts

import (
	"predpraznik_backend/internal/accounts/client"
	"predpraznik_backend/internal/accounts/handler"
	"predpraznik_backend/internal/accounts/repository"
	"predpraznik_backend/internal/accounts/service"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/config"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the accounts module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the accounts module. Without admin functions configured
// accounts can be listed but not changed.
func NewModule(pool *pgxpool.Pool, cfg config.AdminFunctionsConfig, val *validator.Validator, log *logger.Logger) *Module {
	var admin service.AdminFunctions
	if cfg.IsAdminFunctionsEnabled() {
		admin = client.New(cfg.GetAdminFunctionsURL(), cfg.GetAdminFunctionsToken(), log)
	} else {
		log.Warn("admin functions not configured, account management is read-only")
	}
	svc := service.New(repository.New(pool), admin, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "accounts"
}

// RegisterRoutes mounts admin account routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/users")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/:id/reset-password", m.handler.ResetPassword)
}

var _ apphttp.Module = (*Module)(nil)

// Package activity records domain events into the activity log and serves
// the feed and per salesperson analytics built from it.
package activity

import (
	"time"

	"predpraznik_backend/internal/activity/handler"
	"predpraznik_backend/internal/activity/repository"
	"predpraznik_backend/internal/activity/service"
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity module implementing http.Module.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
	log     *logger.Logger
}

// NewModule creates and initializes the activity module.
func NewModule(pool *pgxpool.Pool, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), loc, log)
	return &Module{svc: svc, handler: handler.New(svc, val), log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterHandlers subscribes the recorder to every logged domain event.
func (m *Module) RegisterHandlers(bus events.Bus) {
	names := service.EventNames()
	for _, name := range names {
		bus.Subscribe(name, m.svc)
	}
	m.log.Info("activity module registered event handlers", "events", len(names))
}

// RegisterRoutes mounts activity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/activity")
	group.GET("", m.handler.Feed)
	group.GET("/summary", m.handler.Summary)
}

var _ apphttp.Module = (*Module)(nil)

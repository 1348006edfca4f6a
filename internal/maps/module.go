package maps

import (
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module wires the map and address lookup HTTP routes.
type Module struct {
	handler *Handler
}

// NewModule builds the maps module. A nil redis client disables the lookup
// cache.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, threshold float64, val *validator.Validator, log *logger.Logger) *Module {
	var cache LookupCache
	if rdb != nil {
		cache = NewRedisCache(rdb, log)
	}
	svc := NewService(NewRepository(pool), NewGeocoder("", log), cache, threshold, log)
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/maps")
	group.GET("/points", m.handler.Points)
	group.GET("/nearest", m.handler.Nearest)
	group.GET("/address-lookup", m.handler.LookupAddress)
}

var _ apphttp.Module = (*Module)(nil)

package handler

import (
	"net/http"

	"predpraznik_backend/internal/dashboard/service"
	"predpraznik_backend/internal/dashboard/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new dashboard handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return false
	}
	return true
}

// GET /api/v1/dashboard/actions
func (h *Handler) Actions(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.FilterRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Actions(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/dashboard/kpis
func (h *Handler) KPIs(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.FilterRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.KPIs(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/dashboard/trends
func (h *Handler) Trends(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.TrendRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Trends(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/dashboard/status-distribution
func (h *Handler) StatusDistribution(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.FilterRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.StatusDistribution(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

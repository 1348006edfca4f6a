package handler

import (
	"net/http"

	"predpraznik_backend/internal/activity/service"
	"predpraznik_backend/internal/activity/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the activity log.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new activity handler.
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

// Feed lists recent activity.
// GET /api/v1/activity
func (h *Handler) Feed(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.FeedRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Feed(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Summary counts actions per salesperson.
// GET /api/v1/activity/summary
func (h *Handler) Summary(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.SummaryRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Summary(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

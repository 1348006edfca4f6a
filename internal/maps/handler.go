package maps

import (
	"net/http"

	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the maps endpoints.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) bindQuery(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, message, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, message, validator.FieldErrors(err))
		return false
	}
	return true
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if !h.bindQuery(c, &req, "query 'q' is required (min 3 chars)") {
		return
	}
	results, err := h.svc.SearchAddress(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, results)
}

// Points handles GET /api/v1/maps/points
func (h *Handler) Points(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req PointsRequest
	if !h.bindQuery(c, &req, "invalid request") {
		return
	}
	result, err := h.svc.Points(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Nearest handles GET /api/v1/maps/nearest?lat=..&lng=..
func (h *Handler) Nearest(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req NearestRequest
	if !h.bindQuery(c, &req, "lat and lng are required") {
		return
	}
	result, err := h.svc.Nearest(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

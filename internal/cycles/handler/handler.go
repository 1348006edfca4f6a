package handler

import (
	"net/http"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/cycles/service"
	"predpraznik_backend/internal/cycles/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for cycles.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCycleID   = "invalid cycle id"
)

// New creates a new cycles handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// bind decodes and validates a JSON body, writing the 400 itself.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

// actorAndID resolves the caller and the :id path parameter.
func actorAndID(c *gin.Context) (access.Actor, uuid.UUID, bool) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return access.Actor{}, uuid.UUID{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCycleID, nil)
		return access.Actor{}, uuid.UUID{}, false
	}
	return actor, id, true
}

// List returns cycles.
// GET /api/v1/cycles
func (h *Handler) List(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ListCyclesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.List(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Activate starts a clean cycle on a free code.
// POST /api/v1/cycles
func (h *Handler) Activate(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ActivateRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Activate(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get returns one cycle.
// GET /api/v1/cycles/:id
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History returns the activity log of a cycle.
// GET /api/v1/cycles/:id/history
func (h *Handler) History(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	result, err := h.svc.History(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PlaceOnTest puts the mat at a customer.
// POST /api/v1/cycles/:id/place
func (h *Handler) PlaceOnTest(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.PlaceOnTestRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.PlaceOnTest(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkDirty marks the mat as soiled.
// POST /api/v1/cycles/:id/dirty
func (h *Handler) MarkDirty(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.MarkDirty(c.Request.Context(), actor, id, req.Version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RequestPickup asks for collection.
// POST /api/v1/cycles/:id/request-pickup
func (h *Handler) RequestPickup(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.RequestPickup(c.Request.Context(), actor, id, req.Version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SignContract records a signed contract.
// POST /api/v1/cycles/:id/contract
func (h *Handler) SignContract(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.SignContractRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.SignContract(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Extend grants another trial period.
// POST /api/v1/cycles/:id/extend
func (h *Handler) Extend(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Extend(c.Request.Context(), actor, id, req.Version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateNotes replaces notes.
// PUT /api/v1/cycles/:id/notes
func (h *Handler) UpdateNotes(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateNotesRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateNotes(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateLocation replaces the location.
// PUT /api/v1/cycles/:id/location
func (h *Handler) UpdateLocation(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateLocationRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateLocation(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MatTypes lists mat sizes.
// GET /api/v1/mat-types
func (h *Handler) MatTypes(c *gin.Context) {
	result, err := h.svc.MatTypes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

package handler

import (
	"net/http"

	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/pickups/service"
	"predpraznik_backend/internal/pickups/transport"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for driver pickups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidPickupID  = "invalid pickup id"
	msgInvalidItemID    = "invalid item id"
)

// New creates a new pickups handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func parseID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// List returns batches.
// GET /api/v1/pickups
func (h *Handler) List(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ListPickupsRequest
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

// Create batches cycles for a driver.
// POST /api/v1/pickups
func (h *Handler) Create(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.CreatePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	result, err := h.svc.CreateBatch(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get returns a batch with items.
// GET /api/v1/pickups/:id
func (h *Handler) Get(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Start begins the route.
// POST /api/v1/pickups/:id/start
func (h *Handler) Start(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	result, err := h.svc.StartBatch(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ToggleItem flips the picked-up flag.
// POST /api/v1/pickups/:id/items/:itemId/toggle
func (h *Handler) ToggleItem(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId", msgInvalidItemID)
	if !ok {
		return
	}
	result, err := h.svc.ToggleItem(c.Request.Context(), actor, id, itemID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Complete closes the batch and its cycles.
// POST /api/v1/pickups/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	result, err := h.svc.CompleteBatch(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignDriver sets the driver.
// PUT /api/v1/pickups/:id/driver
func (h *Handler) AssignDriver(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	var req transport.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	result, err := h.svc.AssignDriver(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a batch that is not completed.
// DELETE /api/v1/pickups/:id
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidPickupID)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteBatch(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.NoContent(c)
}

package handler

import (
	"net/http"

	"predpraznik_backend/internal/access"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/tasks/service"
	"predpraznik_backend/internal/tasks/transport"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the task board.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidTaskID    = "invalid task id"
)

// New creates a new tasks handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

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

func actorAndID(c *gin.Context) (access.Actor, uuid.UUID, bool) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return access.Actor{}, uuid.UUID{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTaskID, nil)
		return access.Actor{}, uuid.UUID{}, false
	}
	return actor, id, true
}

// Board returns the board grouped by column.
// GET /api/v1/tasks/board
func (h *Handler) Board(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.BoardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	result, err := h.svc.Board(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create adds a task.
// POST /api/v1/tasks
func (h *Handler) Create(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.CreateTaskRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update edits a task.
// PATCH /api/v1/tasks/:id
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateTaskRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Move drops a task into a column at a position.
// POST /api/v1/tasks/:id/move
func (h *Handler) Move(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req transport.MoveTaskRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Move(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reorder replaces the order of one column.
// PUT /api/v1/tasks/order
func (h *Handler) Reorder(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ReorderRequest
	if !h.bind(c, &req) {
		return
	}
	if httpkit.HandleError(c, h.svc.Reorder(c.Request.Context(), actor, req)) {
		return
	}
	httpkit.NoContent(c)
}

// Archive takes a task off the board.
// POST /api/v1/tasks/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Archive(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.NoContent(c)
}

// Delete removes a task.
// DELETE /api/v1/tasks/:id
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.NoContent(c)
}

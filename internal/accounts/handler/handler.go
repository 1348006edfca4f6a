package handler

import (
	"net/http"

	"predpraznik_backend/internal/accounts/service"
	"predpraznik_backend/internal/accounts/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for account management.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new accounts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns every account.
// GET /api/v1/admin/users
func (h *Handler) List(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.ListUsers(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates an account and returns its one-time password.
// POST /api/v1/admin/users
func (h *Handler) Create(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}
	result, err := h.svc.CreateUser(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Delete removes an account.
// DELETE /api/v1/admin/users/:id
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteUser(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.NoContent(c)
}

// ResetPassword generates a new password.
// POST /api/v1/admin/users/:id/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	result, err := h.svc.ResetPassword(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

package handler

import (
	"net/http"

	"predpraznik_backend/internal/codes/service"
	"predpraznik_backend/internal/codes/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for QR codes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new codes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns codes with derived status.
// GET /api/v1/codes
func (h *Handler) List(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ListCodesRequest
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

// Get resolves a scanned code.
// GET /api/v1/codes/:code
func (h *Handler) Get(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.Lookup(c.Request.Context(), actor, c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// QR renders the code as a PNG image.
// GET /api/v1/codes/:code/qr.png
func (h *Handler) QR(c *gin.Context) {
	png, err := h.svc.RenderQR(c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// GenerateBatch creates a batch of new codes.
// POST /api/v1/codes/batches
func (h *Handler) GenerateBatch(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.GenerateBatch(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// AssignOwner sets the owning salesperson.
// PUT /api/v1/codes/:code/owner
func (h *Handler) AssignOwner(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.AssignOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.AssignOwner(c.Request.Context(), actor, c.Param("code"), req.OwnerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a code without history.
// DELETE /api/v1/codes/:code
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), actor, c.Param("code"))) {
		return
	}
	httpkit.NoContent(c)
}

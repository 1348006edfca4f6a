package handler

import (
	"net/http"

	"predpraznik_backend/internal/companies/service"
	"predpraznik_backend/internal/companies/transport"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for companies and contacts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCompanyID = "invalid company id"
	msgInvalidContactID = "invalid contact id"
)

// New creates a new companies handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List searches companies.
// GET /api/v1/companies
func (h *Handler) List(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.ListCompaniesRequest
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

// Create registers a company.
// POST /api/v1/companies
func (h *Handler) Create(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get returns a company with contacts and child sites.
// GET /api/v1/companies/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update edits company data.
// PATCH /api/v1/companies/:id
func (h *Handler) Update(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	var req transport.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdatePipeline moves a company along the funnel.
// PUT /api/v1/companies/:id/pipeline
func (h *Handler) UpdatePipeline(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	var req transport.UpdatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdatePipelineStatus(c.Request.Context(), actor, id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddContact adds a contact person.
// POST /api/v1/companies/:id/contacts
func (h *Handler) AddContact(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	var req transport.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.AddContact(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// UpdateContact replaces a contact.
// PUT /api/v1/companies/:id/contacts/:contactId
func (h *Handler) UpdateContact(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	contactID, ok := parseID(c, "contactId", msgInvalidContactID)
	if !ok {
		return
	}
	var req transport.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateContact(c.Request.Context(), actor, id, contactID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteContact removes a contact.
// DELETE /api/v1/companies/:id/contacts/:contactId
func (h *Handler) DeleteContact(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", msgInvalidCompanyID)
	if !ok {
		return
	}
	contactID, ok := parseID(c, "contactId", msgInvalidContactID)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteContact(c.Request.Context(), actor, id, contactID)) {
		return
	}
	httpkit.NoContent(c)
}

func parseID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

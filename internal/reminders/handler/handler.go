package handler

import (
	"net/http"

	"predpraznik_backend/internal/access"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/reminders/service"
	"predpraznik_backend/internal/reminders/transport"
	"predpraznik_backend/platform/httpkit"
	"predpraznik_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for reminders and contract follow-ups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgInvalidReminderID = "invalid reminder id"
	msgInvalidCompanyID  = "invalid company id"
)

// New creates a new reminders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
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

func actorAndID(c *gin.Context, msg string) (access.Actor, uuid.UUID, bool) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return access.Actor{}, uuid.UUID{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return access.Actor{}, uuid.UUID{}, false
	}
	return actor, id, true
}

// Due returns the caller's due reminders.
// GET /api/v1/reminders/due
func (h *Handler) Due(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.svc.DueReminders(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Upcoming returns the caller's reminders of the next days.
// GET /api/v1/reminders/upcoming
func (h *Handler) Upcoming(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.UpcomingRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.ListUpcoming(c.Request.Context(), actor, req.Days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ContractFollowups lists companies waiting too long on a sent contract.
// GET /api/v1/reminders/contract-followups
func (h *Handler) ContractFollowups(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.FollowupsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.ContractPendingFollowups(c.Request.Context(), actor, req.ThresholdDays)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create schedules a reminder.
// POST /api/v1/reminders
func (h *Handler) Create(c *gin.Context) {
	actor, ok := apphttp.MustGetActor(c)
	if !ok {
		return
	}
	var req transport.CreateReminderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Complete closes a reminder.
// POST /api/v1/reminders/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	actor, id, ok := actorAndID(c, msgInvalidReminderID)
	if !ok {
		return
	}
	result, err := h.svc.Complete(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Postpone moves a reminder to a chosen future time.
// POST /api/v1/reminders/:id/postpone
func (h *Handler) Postpone(c *gin.Context) {
	actor, id, ok := actorAndID(c, msgInvalidReminderID)
	if !ok {
		return
	}
	var req transport.PostponeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Postpone(c.Request.Context(), actor, id, req.ReminderAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PostponeFollowup moves a reminder to tomorrow morning.
// POST /api/v1/reminders/:id/postpone-followup
func (h *Handler) PostponeFollowup(c *gin.Context) {
	actor, id, ok := actorAndID(c, msgInvalidReminderID)
	if !ok {
		return
	}
	result, err := h.svc.PostponeFollowup(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ContractCalled logs the follow-up call and schedules the next reminder.
// POST /api/v1/reminders/contract-followups/:id/called
func (h *Handler) ContractCalled(c *gin.Context) {
	actor, id, ok := actorAndID(c, msgInvalidCompanyID)
	if !ok {
		return
	}
	result, err := h.svc.MarkContractCalled(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ContractReceived records the signed contract.
// POST /api/v1/reminders/contract-followups/:id/received
func (h *Handler) ContractReceived(c *gin.Context) {
	actor, id, ok := actorAndID(c, msgInvalidCompanyID)
	if !ok {
		return
	}
	var req transport.ContractReceivedRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if httpkit.HandleError(c, h.svc.MarkContractReceived(c.Request.Context(), actor, id, req.ReminderID)) {
		return
	}
	httpkit.NoContent(c)
}

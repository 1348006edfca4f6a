package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateReminderRequest schedules a personal reminder.
type CreateReminderRequest struct {
	ReminderAt time.Time  `json:"reminderAt" validate:"required"`
	Note       string     `json:"note" validate:"max=2000"`
	Type       string     `json:"type" validate:"omitempty,oneof=general call visit contract_followup"`
	CompanyID  *uuid.UUID `json:"companyId,omitempty"`
}

// PostponeRequest moves a reminder to an arbitrary future time.
type PostponeRequest struct {
	ReminderAt time.Time `json:"reminderAt" validate:"required"`
}

// ContractReceivedRequest optionally closes the reminder that prompted it.
type ContractReceivedRequest struct {
	ReminderID *uuid.UUID `json:"reminderId,omitempty"`
}

// UpcomingRequest are the query filters for GET /reminders/upcoming.
type UpcomingRequest struct {
	Days int `form:"days" validate:"omitempty,min=1,max=90"`
}

// FollowupsRequest are the query filters for GET /reminders/contract-followups.
type FollowupsRequest struct {
	ThresholdDays int `form:"thresholdDays" validate:"omitempty,min=0,max=365"`
}

// ReminderResponse is one reminder.
type ReminderResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	CompanyID   *uuid.UUID `json:"companyId,omitempty"`
	CompanyName *string    `json:"companyName,omitempty"`
	ReminderAt  time.Time  `json:"reminderAt"`
	Note        string     `json:"note"`
	Type        string     `json:"type"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	IsDue       bool       `json:"isDue"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FollowupResponse is a company whose sent contract is overdue.
type FollowupResponse struct {
	CompanyID        uuid.UUID  `json:"companyId"`
	CompanyName      string     `json:"companyName"`
	OwnerID          *uuid.UUID `json:"ownerId,omitempty"`
	ContractSentAt   time.Time  `json:"contractSentAt"`
	ContractCalledAt *time.Time `json:"contractCalledAt,omitempty"`
	DaysWaiting      int        `json:"daysWaiting"`
}

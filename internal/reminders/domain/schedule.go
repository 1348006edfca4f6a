// Package domain holds the reminder and contract follow-up rules. Nothing
// here runs on a timer; every result is derived from an explicit now.
package domain

import (
	"time"

	"predpraznik_backend/platform/apperr"
)

// Type of a reminder.
type Type string

const (
	TypeGeneral          Type = "general"
	TypeCall             Type = "call"
	TypeVisit            Type = "visit"
	TypeContractFollowup Type = "contract_followup"
)

// FollowupNote is written on every reminder created by a contract call.
const FollowupNote = "Check whether the signed contract has arrived"

// ParseType validates a wire type. Empty means general.
func ParseType(value string) (Type, error) {
	switch t := Type(value); t {
	case "":
		return TypeGeneral, nil
	case TypeGeneral, TypeCall, TypeVisit, TypeContractFollowup:
		return t, nil
	}
	return "", apperr.Validation("unknown reminder type " + value)
}

// IsDue reports whether an open reminder has reached its time.
func IsDue(at time.Time, completed bool, now time.Time) bool {
	return !completed && !at.After(now)
}

// NextFollowup is tomorrow at hour:00 on the wall clock of loc.
func NextFollowup(now time.Time, loc *time.Location, hour int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).AddDate(0, 0, 1).Date()
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}

// FollowupCutoff is the latest contract_sent_at that is overdue for a call.
func FollowupCutoff(now time.Time, thresholdDays int) time.Time {
	return now.AddDate(0, 0, -thresholdDays)
}

// ValidatePostpone requires a future time on an open reminder.
func ValidatePostpone(completed bool, at, now time.Time) error {
	if completed {
		return apperr.Conflict("completed reminders cannot be postponed")
	}
	if !at.After(now) {
		return apperr.Validation("a reminder can only be postponed into the future")
	}
	return nil
}

// ValidateContractCall allows logging a call only while the contract is out.
func ValidateContractCall(pipelineStatus string) error {
	if pipelineStatus != "contract_sent" {
		return apperr.Conflict("company has no contract waiting for signature")
	}
	return nil
}

// ValidateContractReceived refuses companies already signed or lost.
func ValidateContractReceived(pipelineStatus string) error {
	switch pipelineStatus {
	case "contract_signed":
		return apperr.Conflict("contract is already signed")
	case "lost":
		return apperr.Conflict("company is marked lost")
	}
	return nil
}

package domain

import (
	"time"

	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/apperr"
)

// Severity escalates cycles left on test far beyond the trial.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const day = 24 * time.Hour

// Expiry is the read-side view of a cycle on test. It is never stored.
type Expiry struct {
	ExpiresAt  time.Time `json:"expiresAt"`
	DaysOnTest int       `json:"daysOnTest"`
	IsExpiring bool      `json:"isExpiring"`
	IsExpired  bool      `json:"isExpired"`
	Severity   Severity  `json:"severity"`
}

// ExpiresAt is the nominal trial end: start + trial + one extension per grant.
func ExpiresAt(testStart time.Time, extendedCount int, p policy.Policy) time.Time {
	return testStart.Add(p.TrialDuration() + time.Duration(extendedCount)*p.ExtensionDuration())
}

// DaysOnTest counts whole days since the test started.
func DaysOnTest(testStart, now time.Time) int {
	if now.Before(testStart) {
		return 0
	}
	return int(now.Sub(testStart) / day)
}

// SeverityFor maps days on test to the neglect escalation level.
func SeverityFor(days int, p policy.Policy) Severity {
	switch {
	case days >= p.CriticalDays:
		return SeverityCritical
	case days >= p.WarningDays:
		return SeverityWarning
	}
	return SeverityNone
}

// ComputeExpiry derives the expiry view. It returns nil unless the cycle is
// on test with a start date. A cycle is expiring once strictly less than the
// expiring window remains before its trial end, expired included.
func ComputeExpiry(status Status, testStart *time.Time, extendedCount int, now time.Time, p policy.Policy) *Expiry {
	if status != StatusOnTest || testStart == nil {
		return nil
	}
	expiresAt := ExpiresAt(*testStart, extendedCount, p)
	remaining := expiresAt.Sub(now)
	days := DaysOnTest(*testStart, now)

	return &Expiry{
		ExpiresAt:  expiresAt,
		DaysOnTest: days,
		IsExpiring: remaining < p.ExpiringWindow,
		IsExpired:  remaining <= 0,
		Severity:   SeverityFor(days, p),
	}
}

// ValidateExtension checks status and the optional extension cap.
func ValidateExtension(status Status, extendedCount int, p policy.Policy) error {
	if status != StatusOnTest {
		return apperr.Conflict("only cycles on test can be extended")
	}
	if p.MaxExtensions > 0 && extendedCount >= p.MaxExtensions {
		return apperr.Conflict("extension limit reached").
			WithDetails(map[string]int{"maxExtensions": p.MaxExtensions, "extendedCount": extendedCount})
	}
	return nil
}

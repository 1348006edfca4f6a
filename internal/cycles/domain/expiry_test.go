package domain

import (
	"testing"
	"time"

	"predpraznik_backend/internal/policy"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestExpiryBoundaries(t *testing.T) {
	p := policy.Defaults()

	cases := []struct {
		days     int
		expiring bool
		severity Severity
	}{
		{0, false, SeverityNone},
		{5, false, SeverityNone},
		{6, false, SeverityNone},
		{7, true, SeverityNone},
		{19, true, SeverityNone},
		{20, true, SeverityWarning},
		{29, true, SeverityWarning},
		{30, true, SeverityCritical},
	}

	for _, tc := range cases {
		e := ComputeExpiry(StatusOnTest, daysAgo(tc.days), 0, now, p)
		if e == nil {
			t.Fatalf("%d days: expected expiry view", tc.days)
		}
		if e.IsExpiring != tc.expiring {
			t.Errorf("%d days: expiring=%v, want %v", tc.days, e.IsExpiring, tc.expiring)
		}
		if e.Severity != tc.severity {
			t.Errorf("%d days: severity=%s, want %s", tc.days, e.Severity, tc.severity)
		}
		if e.DaysOnTest != tc.days {
			t.Errorf("%d days: daysOnTest=%d", tc.days, e.DaysOnTest)
		}
	}
}

func TestExpiringJustInsideWindow(t *testing.T) {
	p := policy.Defaults()
	start := now.Add(-6*24*time.Hour - time.Second)
	e := ComputeExpiry(StatusOnTest, &start, 0, now, p)
	if !e.IsExpiring || e.IsExpired {
		t.Fatalf("one second into day 6 should be expiring but not expired: %+v", e)
	}
}

func TestExtensionPushesExpiry(t *testing.T) {
	p := policy.Defaults()
	e := ComputeExpiry(StatusOnTest, daysAgo(7), 1, now, p)
	if e.IsExpiring {
		t.Fatal("one extension should move day 7 out of the expiring window")
	}
	if want := daysAgo(7).Add(14 * 24 * time.Hour); !e.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", e.ExpiresAt, want)
	}
	// neglect escalation ignores extensions
	e = ComputeExpiry(StatusOnTest, daysAgo(30), 3, now, p)
	if e.Severity != SeverityCritical {
		t.Fatalf("30 days on test is critical regardless of extensions, got %s", e.Severity)
	}
}

func TestExpiryOnlyForOnTest(t *testing.T) {
	p := policy.Defaults()
	for _, s := range []Status{StatusClean, StatusDirty, StatusWaitingDriver, StatusCompleted} {
		if ComputeExpiry(s, daysAgo(40), 0, now, p) != nil {
			t.Errorf("%s should have no expiry view", s)
		}
	}
	if ComputeExpiry(StatusOnTest, nil, 0, now, p) != nil {
		t.Fatal("missing start date yields no view")
	}
}

func TestSeparateHorizons(t *testing.T) {
	p := policy.Defaults()
	p.TrialDays = 14
	if SeverityFor(20, p) != SeverityWarning {
		t.Fatal("changing the trial must not move the warning threshold")
	}
	if e := ComputeExpiry(StatusOnTest, daysAgo(7), 0, now, p); e.IsExpiring {
		t.Fatal("14 day trial should not be expiring at day 7")
	}
}

func TestValidateExtension(t *testing.T) {
	p := policy.Defaults()
	if err := ValidateExtension(StatusOnTest, 25, p); err != nil {
		t.Fatalf("unbounded by default: %v", err)
	}
	if err := ValidateExtension(StatusDirty, 0, p); err == nil {
		t.Fatal("dirty cycles cannot be extended")
	}
	p.MaxExtensions = 2
	if err := ValidateExtension(StatusOnTest, 1, p); err != nil {
		t.Fatalf("second extension allowed: %v", err)
	}
	if err := ValidateExtension(StatusOnTest, 2, p); err == nil {
		t.Fatal("cap reached")
	}
}

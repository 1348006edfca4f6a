// Package domain derives dashboard views from snapshots of current state.
// Nothing here touches storage; every builder is recomputed in full per call.
package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	cycledomain "predpraznik_backend/internal/cycles/domain"
	"predpraznik_backend/internal/policy"

	"github.com/google/uuid"
)

// Severity buckets an action item.
type Severity string

const (
	SeverityUrgent Severity = "urgent"
	SeverityToday  Severity = "today"
)

// Kind names what an action item asks for.
type Kind string

const (
	KindCriticalTest  Kind = "critical_test"
	KindWarningTest   Kind = "warning_test"
	KindStalePickup   Kind = "stale_pickup"
	KindActivePickup  Kind = "active_pickup"
	KindDirtyBacklog  Kind = "dirty_backlog"
	KindWaitingDriver Kind = "waiting_driver"
)

// TestPlacement is one cycle currently on test.
type TestPlacement struct {
	CycleID         uuid.UUID
	SalespersonID   uuid.UUID
	SalespersonName string
	TestStartDate   time.Time
}

// PickupState is one batch that is not completed yet.
type PickupState struct {
	ID            uuid.UUID
	Status        string
	ScheduledDate time.Time
	ItemCount     int
	CreatedAt     time.Time
}

// Backlog counts cycles waiting for collection per salesperson.
type Backlog struct {
	SalespersonID   uuid.UUID
	SalespersonName string
	Dirty           int
	WaitingDriver   int
}

// Snapshot is the current state the action list is derived from.
type Snapshot struct {
	OnTest   []TestPlacement
	Pickups  []PickupState
	Backlogs []Backlog
}

// ActionItem is one entry of the dashboard to-do list.
type ActionItem struct {
	Kind            Kind       `json:"kind"`
	Severity        Severity   `json:"severity"`
	Message         string     `json:"message"`
	SalespersonID   *uuid.UUID `json:"salespersonId,omitempty"`
	SalespersonName string     `json:"salespersonName,omitempty"`
	PickupID        *uuid.UUID `json:"pickupId,omitempty"`
	Count           int        `json:"count"`
	Days            int        `json:"days"`
}

// Actions is the ordered output of BuildActionItems.
type Actions struct {
	Urgent      []ActionItem `json:"urgent"`
	Today       []ActionItem `json:"today"`
	UrgentCount int          `json:"urgentCount"`
	TodayCount  int          `json:"todayCount"`
}

type testGroup struct {
	name    string
	count   int
	maxDays int
}

// BuildActionItems applies the dashboard thresholds to a snapshot. Urgent
// items sort by days elapsed, most overdue first; today items by count.
func BuildActionItems(s Snapshot, p policy.Policy, now time.Time) Actions {
	critical := map[uuid.UUID]*testGroup{}
	warning := map[uuid.UUID]*testGroup{}
	for _, t := range s.OnTest {
		days := cycledomain.DaysOnTest(t.TestStartDate, now)
		var groups map[uuid.UUID]*testGroup
		switch cycledomain.SeverityFor(days, p) {
		case cycledomain.SeverityCritical:
			groups = critical
		case cycledomain.SeverityWarning:
			groups = warning
		default:
			continue
		}
		g, ok := groups[t.SalespersonID]
		if !ok {
			g = &testGroup{name: t.SalespersonName}
			groups[t.SalespersonID] = g
		}
		g.count++
		g.maxDays = max(g.maxDays, days)
	}

	out := Actions{Urgent: []ActionItem{}, Today: []ActionItem{}}
	for id, g := range critical {
		out.Urgent = append(out.Urgent, testItem(KindCriticalTest, SeverityUrgent, id, g,
			fmt.Sprintf("%d mats on test for %d+ days", g.count, p.CriticalDays)))
	}
	for id, g := range warning {
		out.Today = append(out.Today, testItem(KindWarningTest, SeverityToday, id, g,
			fmt.Sprintf("%d mats on test for %d+ days", g.count, p.WarningDays)))
	}

	for _, pk := range s.Pickups {
		id := pk.ID
		switch pk.Status {
		case "pending":
			days := int(now.Sub(pk.CreatedAt) / (24 * time.Hour))
			if days >= p.StalePickupDays {
				out.Urgent = append(out.Urgent, ActionItem{
					Kind: KindStalePickup, Severity: SeverityUrgent, PickupID: &id,
					Count: pk.ItemCount, Days: days,
					Message: fmt.Sprintf("pickup pending for %d days", days),
				})
			}
		case "in_progress":
			out.Today = append(out.Today, ActionItem{
				Kind: KindActivePickup, Severity: SeverityToday, PickupID: &id,
				Count:   pk.ItemCount,
				Message: fmt.Sprintf("pickup in progress with %d mats", pk.ItemCount),
			})
		}
	}

	for _, b := range s.Backlogs {
		id := b.SalespersonID
		if b.Dirty >= p.DirtyBacklogThreshold {
			out.Today = append(out.Today, ActionItem{
				Kind: KindDirtyBacklog, Severity: SeverityToday,
				SalespersonID: &id, SalespersonName: b.SalespersonName, Count: b.Dirty,
				Message: fmt.Sprintf("%d dirty mats, organize a pickup", b.Dirty),
			})
		}
		if b.WaitingDriver > 0 {
			out.Today = append(out.Today, ActionItem{
				Kind: KindWaitingDriver, Severity: SeverityToday,
				SalespersonID: &id, SalespersonName: b.SalespersonName, Count: b.WaitingDriver,
				Message: fmt.Sprintf("%d mats waiting for the driver", b.WaitingDriver),
			})
		}
	}

	slices.SortStableFunc(out.Urgent, func(a, b ActionItem) int {
		return cmp.Or(cmp.Compare(b.Days, a.Days), cmp.Compare(b.Count, a.Count), cmp.Compare(a.Message, b.Message))
	})
	slices.SortStableFunc(out.Today, func(a, b ActionItem) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.SalespersonName, b.SalespersonName))
	})
	out.UrgentCount = len(out.Urgent)
	out.TodayCount = len(out.Today)
	return out
}

func testItem(kind Kind, sev Severity, id uuid.UUID, g *testGroup, msg string) ActionItem {
	return ActionItem{
		Kind: kind, Severity: sev, Message: msg,
		SalespersonID: &id, SalespersonName: g.name,
		Count: g.count, Days: g.maxDays,
	}
}

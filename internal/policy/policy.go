// Package policy holds the business thresholds of the doormat rental cycle.
// The nominal trial horizon and the neglect escalation horizon are separate
// settings and must never be derived from each other.
package policy

import (
	"fmt"
	"time"
)

// Policy is the full set of lifecycle and reporting thresholds.
type Policy struct {
	// TrialDays is the nominal length of a test placement.
	TrialDays int `yaml:"trial_days"`
	// ExtensionDays is how far one extension pushes the trial end.
	ExtensionDays int `yaml:"extension_days"`
	// ExpiringWindow is how close to the trial end a cycle counts as expiring.
	ExpiringWindow time.Duration `yaml:"expiring_window"`
	// MaxExtensions caps extensions per cycle; 0 means unbounded.
	MaxExtensions int `yaml:"max_extensions"`

	// WarningDays and CriticalDays escalate cycles left on test too long.
	WarningDays  int `yaml:"warning_days"`
	CriticalDays int `yaml:"critical_days"`

	StalePickupDays       int `yaml:"stale_pickup_days"`
	DirtyBacklogThreshold int `yaml:"dirty_backlog_threshold"`

	ContractFollowupDays int `yaml:"contract_followup_days"`
	FollowupHour         int `yaml:"followup_hour"`

	ConversionWindowDays int `yaml:"conversion_window_days"`
	TrendMonths          int `yaml:"trend_months"`

	// PickupRequiresAllItems blocks batch completion while items are unmarked.
	PickupRequiresAllItems bool `yaml:"pickup_requires_all_items"`

	// ClusterThreshold is the grouping distance for map points, in degrees.
	ClusterThreshold float64 `yaml:"cluster_threshold"`
}

// Defaults returns the thresholds observed in production use.
func Defaults() Policy {
	return Policy{
		TrialDays:              7,
		ExtensionDays:          7,
		ExpiringWindow:         24 * time.Hour,
		MaxExtensions:          0,
		WarningDays:            20,
		CriticalDays:           30,
		StalePickupDays:        3,
		DirtyBacklogThreshold:  10,
		ContractFollowupDays:   3,
		FollowupHour:           9,
		ConversionWindowDays:   90,
		TrendMonths:            12,
		PickupRequiresAllItems: false,
		ClusterThreshold:       0.0001,
	}
}

// TrialDuration returns the nominal trial length.
func (p Policy) TrialDuration() time.Duration {
	return time.Duration(p.TrialDays) * 24 * time.Hour
}

// ExtensionDuration returns the length added by one extension.
func (p Policy) ExtensionDuration() time.Duration {
	return time.Duration(p.ExtensionDays) * 24 * time.Hour
}

// Validate rejects nonsensical combinations.
func (p Policy) Validate() error {
	switch {
	case p.TrialDays < 1:
		return fmt.Errorf("trial_days must be positive")
	case p.ExtensionDays < 1:
		return fmt.Errorf("extension_days must be positive")
	case p.ExpiringWindow < 0:
		return fmt.Errorf("expiring_window must not be negative")
	case p.MaxExtensions < 0:
		return fmt.Errorf("max_extensions must not be negative")
	case p.WarningDays < 1 || p.CriticalDays <= p.WarningDays:
		return fmt.Errorf("critical_days (%d) must be greater than warning_days (%d)", p.CriticalDays, p.WarningDays)
	case p.StalePickupDays < 0 || p.DirtyBacklogThreshold < 1:
		return fmt.Errorf("pickup thresholds out of range")
	case p.ContractFollowupDays < 0:
		return fmt.Errorf("contract_followup_days must not be negative")
	case p.FollowupHour < 0 || p.FollowupHour > 23:
		return fmt.Errorf("followup_hour must be between 0 and 23")
	case p.ConversionWindowDays < 1 || p.TrendMonths < 1:
		return fmt.Errorf("reporting windows must be positive")
	case p.ClusterThreshold <= 0:
		return fmt.Errorf("cluster_threshold must be positive")
	}
	return nil
}

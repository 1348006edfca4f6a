package domain

// Status is derived from the code's current non-completed cycle, never stored.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
)

// DeriveStatus maps the status of the open cycle (nil when there is none).
// A clean cycle has been activated but not yet placed at a customer.
func DeriveStatus(openCycleStatus *string) Status {
	if openCycleStatus == nil {
		return StatusAvailable
	}
	if *openCycleStatus == "clean" {
		return StatusPending
	}
	return StatusActive
}

// ParseStatus accepts the wire names used in list filters.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusAvailable, StatusPending, StatusActive:
		return Status(value), true
	}
	return "", false
}

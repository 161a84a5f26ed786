package enums

import "fmt"

// RedemptionStatus tracks the lifecycle of an issued discount code.
// Valid transitions: issued -> cancelled, issued -> used. Nothing else.
type RedemptionStatus string

const (
	RedemptionStatusIssued    RedemptionStatus = "issued"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
	RedemptionStatusUsed      RedemptionStatus = "used"
)

var validRedemptionStatuses = []RedemptionStatus{
	RedemptionStatusIssued,
	RedemptionStatusCancelled,
	RedemptionStatusUsed,
}

// IsValid reports whether the value matches the canonical redemption status enum.
func (s RedemptionStatus) IsValid() bool {
	for _, candidate := range validRedemptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status change is a legal slot transition.
func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	return s == RedemptionStatusIssued &&
		(next == RedemptionStatusCancelled || next == RedemptionStatusUsed)
}

// ParseRedemptionStatus converts raw input into RedemptionStatus.
func ParseRedemptionStatus(value string) (RedemptionStatus, error) {
	for _, candidate := range validRedemptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption status %q", value)
}

package enums

import "fmt"

// ActionType tags an append-only reward action row. Whitelisted social award
// names travel in the action's reference, not here, so the set stays closed.
type ActionType string

const (
	ActionTypeSignup           ActionType = "signup"
	ActionTypeAward            ActionType = "award"
	ActionTypePurchase         ActionType = "purchase"
	ActionTypeRedemption       ActionType = "redemption"
	ActionTypeCancellation     ActionType = "cancellation"
	ActionTypeReferralSignup   ActionType = "referral_signup"
	ActionTypeReferralPurchase ActionType = "referral_purchase"
	ActionTypeMilestone        ActionType = "milestone"
	ActionTypeDiscountTierUsed ActionType = "discount_tier_used"
)

var validActionTypes = []ActionType{
	ActionTypeSignup,
	ActionTypeAward,
	ActionTypePurchase,
	ActionTypeRedemption,
	ActionTypeCancellation,
	ActionTypeReferralSignup,
	ActionTypeReferralPurchase,
	ActionTypeMilestone,
	ActionTypeDiscountTierUsed,
}

// IsValid reports whether the value matches the canonical action type enum.
func (t ActionType) IsValid() bool {
	for _, candidate := range validActionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseActionType converts raw input into ActionType.
func ParseActionType(value string) (ActionType, error) {
	for _, candidate := range validActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action type %q", value)
}

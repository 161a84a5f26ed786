package rewards

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignupInput enrolls a storefront customer into the program.
type SignupInput struct {
	Email      string
	FirstName  string
	ReferredBy string
}

// SignupResult reports the enrolled customer plus any welcome discount that
// was minted for a referred signup. WelcomeCode is nil when issuance was
// skipped or failed; signup itself never fails on it.
type SignupResult struct {
	CustomerID   uuid.UUID
	Points       int
	ReferralCode string
	ReferralURL  string
	WelcomeCode  *string
}

// AwardInput grants a one-time social action bonus.
type AwardInput struct {
	Email  string
	Action string
}

type AwardResult struct {
	Awarded int
	Balance int
}

// RedeemInput converts points into a single-use discount code.
type RedeemInput struct {
	Email  string
	Points int
	Kind   string
	Value  decimal.Decimal
}

type RedeemResult struct {
	Code    string
	Balance int
}

// CancelInput voids the outstanding discount. Points, when non-zero, must
// match the recorded redemption cost; zero means "refund whatever was spent".
type CancelInput struct {
	Email  string
	Points int
}

type CancelResult struct {
	Refunded int
	Balance  int
}

// MarkUsedInput settles the outstanding discount after checkout applied it.
type MarkUsedInput struct {
	Email string
	Code  string
}

// PurchaseInput is the paid-order fact delivered by the storefront webhook.
type PurchaseInput struct {
	Email         string
	OrderID       string
	Total         decimal.Decimal
	DiscountCodes []string
}

// PurchaseResult reports what the paid order changed. Skipped purchases carry
// a reason instead of an error: webhook replays and non-member orders are
// normal traffic, not faults.
type PurchaseResult struct {
	Skipped       bool
	Reason        string
	Points        int
	Tier          string
	Balance       int
	ReferralBonus bool
}

// MilestoneInput claims the reward for a referral-count threshold.
type MilestoneInput struct {
	Email     string
	Threshold int
}

type MilestoneResult struct {
	Reward string
	Code   string
}

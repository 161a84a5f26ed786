package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a storefront shopper enrolled in the rewards program.
// PointsBalance is a materialized view over the customer's reward actions;
// the action log stays the source of truth.
type Customer struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName     string          `gorm:"column:first_name;not null"`
	PointsBalance int             `gorm:"column:points_balance;not null;default:0"`
	ReferralCode  string          `gorm:"column:referral_code;type:text;not null;uniqueIndex"`
	ReferredBy    *string         `gorm:"column:referred_by"`
	TierName      string          `gorm:"column:tier_name;not null;default:'Member'"`
	TierSpend     decimal.Decimal `gorm:"column:tier_spend;type:numeric(12,2);not null;default:0"`
	ReferralCount int             `gorm:"column:referral_count;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

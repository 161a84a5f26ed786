package models

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneAward records the one-time reward issued for a referral-count
// threshold. The unique index on (customer_id, threshold) prevents
// double-issuance.
type MilestoneAward struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_milestone_awards_customer_threshold"`
	Threshold  int       `gorm:"column:threshold;not null;uniqueIndex:ux_milestone_awards_customer_threshold"`
	Reward     string    `gorm:"column:reward;type:text;not null"`
	Code       string    `gorm:"column:code;type:text;not null"`
	ExternalID string    `gorm:"column:external_id;type:text;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

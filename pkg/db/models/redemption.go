package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hazelpoint/rewards-backend/pkg/enums"
)

// Redemption is the outstanding-discount slot, promoted to a first-class row.
// A partial unique index (one "issued" row per customer, created in the
// migrations) enforces the single-active-code rule the engine relies on.
type Redemption struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	Code        string                 `gorm:"column:code;type:text;not null;index"`
	ExternalID  string                 `gorm:"column:external_id;type:text;not null;default:''"`
	PointsSpent int                    `gorm:"column:points_spent;not null"`
	Status      enums.RedemptionStatus `gorm:"column:status;type:redemption_status_enum;not null;default:'issued'"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hazelpoint/rewards-backend/pkg/enums"
)

// RewardAction records an immutable point movement for a customer. Rows are
// append-only. Reference carries the idempotency key; the unique index on
// (customer_id, reference) makes the append itself the duplicate gate.
type RewardAction struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index;uniqueIndex:ux_reward_actions_customer_reference"`
	Type       enums.ActionType `gorm:"column:type;type:action_type_enum;not null"`
	Points     int              `gorm:"column:points;not null"`
	Reference  *string          `gorm:"column:reference;uniqueIndex:ux_reward_actions_customer_reference"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

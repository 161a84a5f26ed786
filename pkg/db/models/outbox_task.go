package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hazelpoint/rewards-backend/pkg/enums"
)

// OutboxTask represents a background side effect queued via the outbox
// pattern, committed in the same transaction as the state change it follows.
type OutboxTask struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind         enums.OutboxKind `gorm:"column:kind;type:text;not null"`
	Payload      json.RawMessage  `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time       `gorm:"column:published_at"`
	AttemptCount int              `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string          `gorm:"column:last_error"`
}

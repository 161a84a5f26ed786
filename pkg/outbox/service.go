package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
)

// Task describes a background side effect to enqueue.
type Task struct {
	Kind enums.OutboxKind
	Data interface{}
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues a task inside the caller's transaction so the side effect
// commits or rolls back with the state change that produced it.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, task Task) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !task.Kind.IsValid() {
		return errors.New("invalid outbox task kind")
	}
	payload, err := json.Marshal(task.Data)
	if err != nil {
		return err
	}
	row := models.OutboxTask{
		ID:      uuid.New(),
		Kind:    task.Kind,
		Payload: json.RawMessage(payload),
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "task_kind", string(task.Kind))
		s.logg.Info(logCtx, "outbox task queued")
	}
	return nil
}

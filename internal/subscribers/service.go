package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hazelpoint/rewards-backend/pkg/config"
	"github.com/hazelpoint/rewards-backend/pkg/db/models"
	"github.com/hazelpoint/rewards-backend/pkg/enums"
	"github.com/hazelpoint/rewards-backend/pkg/logger"
	"github.com/hazelpoint/rewards-backend/pkg/metrics"
	"github.com/hazelpoint/rewards-backend/pkg/outbox"
)

// ListSubscriber delivers a marketing-list subscription.
type ListSubscriber interface {
	Subscribe(ctx context.Context, email, firstName string) error
}

// ServiceParams wires the outbox delivery worker.
type ServiceParams struct {
	Repo    *outbox.Repository
	List    ListSubscriber
	Config  config.OutboxConfig
	Metrics *metrics.SubscriberMetrics
	Logger  *logger.Logger
}

// Service drains the transactional outbox and delivers each task to its
// downstream collaborator. Delivery is at-least-once; the downstream calls
// are idempotent by construction.
type Service struct {
	repo    *outbox.Repository
	list    ListSubscriber
	cfg     config.OutboxConfig
	metrics *metrics.SubscriberMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.List == nil {
		return nil, errors.New("list subscriber is required")
	}
	cfg := params.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 500
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Service{
		repo:    params.Repo,
		list:    params.List,
		cfg:     cfg,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Run polls for pending tasks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.DrainOnce(ctx); err != nil {
				if s.logg != nil {
					s.logg.Error(ctx, "outbox drain failed", err)
				}
			}
		}
	}
}

// DrainOnce fetches one batch of pending tasks and delivers them in order.
// Per-task failures are recorded on the row; only fetch errors abort the
// batch.
func (s *Service) DrainOnce(ctx context.Context) error {
	rows, err := s.repo.FetchUnpublished(s.cfg.BatchSize, s.cfg.MaxAttempts)
	if err != nil {
		return fmt.Errorf("fetching pending outbox tasks: %w", err)
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.deliver(ctx, row)
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, task models.OutboxTask) {
	label := string(task.Kind)
	started := time.Now()

	err := s.dispatch(ctx, task)
	s.metrics.ObserveDuration(label, time.Since(started))

	if err != nil {
		s.metrics.IncFailure(label)
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"task_id":   task.ID.String(),
				"task_kind": label,
			})
			s.logg.Error(logCtx, "outbox task delivery failed", err)
		}
		if markErr := s.repo.MarkFailed(task.ID, err); markErr != nil && s.logg != nil {
			s.logg.Error(ctx, "marking outbox task failed", markErr)
		}
		return
	}

	s.metrics.IncSuccess(label)
	if markErr := s.repo.MarkPublished(task.ID); markErr != nil && s.logg != nil {
		// The task was delivered; the row will be retried and the delivery
		// replayed. Safe because downstream calls are idempotent.
		s.logg.Error(ctx, "marking outbox task published", markErr)
	}
}

type subscribePayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

func (s *Service) dispatch(ctx context.Context, task models.OutboxTask) error {
	switch task.Kind {
	case enums.OutboxKindListSubscribe:
		var payload subscribePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("decoding subscribe payload: %w", err)
		}
		backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
		return retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := s.list.Subscribe(ctx, payload.Email, payload.FirstName); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
	default:
		return fmt.Errorf("unknown outbox task kind %q", task.Kind)
	}
}

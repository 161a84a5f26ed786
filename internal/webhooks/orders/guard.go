package orderswebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazelpoint/rewards-backend/pkg/redis"
)

// IdempotencyGuard deduplicates webhook deliveries by order id before they
// reach the service layer. The database's order reference remains the final
// gate; the guard just keeps replays from doing work.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, orderID string) (bool, error) {
	if orderID == "" {
		return false, errors.New("order id is required")
	}
	key := g.store.IdempotencyKey(g.scope, orderID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

func (g *IdempotencyGuard) Delete(ctx context.Context, orderID string) error {
	if orderID == "" {
		return errors.New("order id is required")
	}
	key := g.store.IdempotencyKey(g.scope, orderID)
	return g.store.Del(ctx, key)
}

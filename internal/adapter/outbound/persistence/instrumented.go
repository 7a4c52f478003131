// Package persistence holds store-agnostic wrappers around subscription repositories.
package persistence

import (
	"context"
	"errors"

	"github.com/samber/mo"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
	"github.com/jonny/times-relay/internal/metrics"
)

// InstrumentedRepo counts repository operations by result.
// Duplicate adds and missing removes are expected outcomes and count as success.
type InstrumentedRepo struct {
	next outbound.SubscriptionRepository
}

var _ outbound.SubscriptionRepository = (*InstrumentedRepo)(nil)

func Instrument(next outbound.SubscriptionRepository) *InstrumentedRepo {
	return &InstrumentedRepo{next: next}
}

func (r *InstrumentedRepo) Add(ctx context.Context, userID, channelID string) (model.Subscription, error) {
	sub, err := r.next.Add(ctx, userID, channelID)
	observe("add", err, model.ErrDuplicateSubscription)
	return sub, err
}

func (r *InstrumentedRepo) FindByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	subs, err := r.next.FindByUser(ctx, userID)
	observe("find_by_user", err)
	return subs, err
}

func (r *InstrumentedRepo) FindExact(ctx context.Context, userID, channelID string) (mo.Option[model.Subscription], error) {
	sub, err := r.next.FindExact(ctx, userID, channelID)
	observe("find_exact", err)
	return sub, err
}

func (r *InstrumentedRepo) Remove(ctx context.Context, id string) error {
	err := r.next.Remove(ctx, id)
	observe("remove", err, model.ErrSubscriptionNotFound)
	return err
}

func observe(op string, err error, expected ...error) {
	ok := err == nil
	for _, e := range expected {
		if errors.Is(err, e) {
			ok = true
		}
	}
	metrics.SubscriptionOpsTotal.WithLabelValues(op, metrics.Result(ok)).Inc()
}

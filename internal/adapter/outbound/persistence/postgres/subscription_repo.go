package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// SubscriptionRepo implements outbound.SubscriptionRepository on Postgres.
type SubscriptionRepo struct {
	store *Store
}

func NewSubscriptionRepo(store *Store) *SubscriptionRepo {
	return &SubscriptionRepo{store: store}
}

var _ outbound.SubscriptionRepository = (*SubscriptionRepo)(nil)

func (r *SubscriptionRepo) Add(ctx context.Context, userID, channelID string) (model.Subscription, error) {
	sub := model.NewSubscription(userID, channelID)

	const q = `INSERT INTO subscriptions (id, kind, user_id, channel_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT subscriptions_user_channel_key DO NOTHING`

	tag, err := r.store.Pool.Exec(ctx, q, sub.ID, sub.Kind, sub.UserID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("inserting subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Subscription{}, fmt.Errorf("user %s channel %s: %w", userID, channelID, model.ErrDuplicateSubscription)
	}
	return sub, nil
}

func (r *SubscriptionRepo) FindByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	const q = `SELECT id, kind, user_id, channel_id, created_at
		FROM subscriptions WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.store.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("scanning subscriptions: %w", err)
	}
	return subs, nil
}

func (r *SubscriptionRepo) FindExact(ctx context.Context, userID, channelID string) (mo.Option[model.Subscription], error) {
	const q = `SELECT id, kind, user_id, channel_id, created_at
		FROM subscriptions WHERE user_id = $1 AND channel_id = $2`

	rows, err := r.store.Pool.Query(ctx, q, userID, channelID)
	if err != nil {
		return mo.None[model.Subscription](), fmt.Errorf("fetching subscription: %w", err)
	}
	sub, err := pgx.CollectExactlyOneRow(rows, scanSubscription)
	if errors.Is(err, pgx.ErrNoRows) {
		return mo.None[model.Subscription](), nil
	}
	if err != nil {
		return mo.None[model.Subscription](), fmt.Errorf("fetching subscription: %w", err)
	}
	return mo.Some(sub), nil
}

func (r *SubscriptionRepo) Remove(ctx context.Context, id string) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, model.ErrSubscriptionNotFound)
	}
	return nil
}

func scanSubscription(row pgx.CollectableRow) (model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.Kind, &s.UserID, &s.ChannelID, &s.CreatedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, err
}

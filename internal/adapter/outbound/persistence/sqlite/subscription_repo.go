package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samber/mo"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// SubscriptionRepo implements outbound.SubscriptionRepository using SQLite.
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo creates a new SubscriptionRepo backed by the given store.
func NewSubscriptionRepo(store *Store) *SubscriptionRepo {
	return &SubscriptionRepo{db: store.DB}
}

var _ outbound.SubscriptionRepository = (*SubscriptionRepo)(nil)

// Add inserts a subscription. The UNIQUE(user_id, channel_id) constraint turns
// a repeated pair into model.ErrDuplicateSubscription.
func (r *SubscriptionRepo) Add(ctx context.Context, userID, channelID string) (model.Subscription, error) {
	sub := model.NewSubscription(userID, channelID)

	const q = `INSERT INTO subscriptions (id, kind, user_id, channel_id, created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(user_id, channel_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, q, sub.ID, sub.Kind, sub.UserID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("inserting subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Subscription{}, fmt.Errorf("inserting subscription: %w", err)
	}
	if n == 0 {
		return model.Subscription{}, fmt.Errorf("user %s channel %s: %w", userID, channelID, model.ErrDuplicateSubscription)
	}
	return sub, nil
}

// FindByUser returns the user's subscriptions, oldest first.
func (r *SubscriptionRepo) FindByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	const q = `SELECT id, kind, user_id, channel_id, created_at
		FROM subscriptions WHERE user_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	var results []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// FindExact looks up the subscription for a (user, channel) pair.
func (r *SubscriptionRepo) FindExact(ctx context.Context, userID, channelID string) (mo.Option[model.Subscription], error) {
	const q = `SELECT id, kind, user_id, channel_id, created_at
		FROM subscriptions WHERE user_id = ? AND channel_id = ?`

	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, userID, channelID))
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[model.Subscription](), nil
	}
	if err != nil {
		return mo.None[model.Subscription](), fmt.Errorf("fetching subscription: %w", err)
	}
	return mo.Some(s), nil
}

// Remove deletes a subscription by ID.
func (r *SubscriptionRepo) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription %s: %w", id, model.ErrSubscriptionNotFound)
	}
	return nil
}

// --- helpers ---

type subscriptionScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(s subscriptionScanner) (model.Subscription, error) {
	var sub model.Subscription
	if err := s.Scan(&sub.ID, &sub.Kind, &sub.UserID, &sub.ChannelID, &sub.CreatedAt); err != nil {
		return model.Subscription{}, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

// Package memory keeps subscriptions in process memory. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/mo"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// SubscriptionRepo is a mutex-guarded, insertion-ordered subscription store.
type SubscriptionRepo struct {
	mu   sync.RWMutex
	subs []model.Subscription
}

func NewSubscriptionRepo() *SubscriptionRepo {
	return &SubscriptionRepo{}
}

var _ outbound.SubscriptionRepository = (*SubscriptionRepo)(nil)

func (r *SubscriptionRepo) Add(_ context.Context, userID, channelID string) (model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.UserID == userID && s.ChannelID == channelID {
			return model.Subscription{}, fmt.Errorf("user %s channel %s: %w", userID, channelID, model.ErrDuplicateSubscription)
		}
	}
	sub := model.NewSubscription(userID, channelID)
	r.subs = append(r.subs, sub)
	return sub, nil
}

func (r *SubscriptionRepo) FindByUser(_ context.Context, userID string) ([]model.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SubscriptionRepo) FindExact(_ context.Context, userID, channelID string) (mo.Option[model.Subscription], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.subs {
		if s.UserID == userID && s.ChannelID == channelID {
			return mo.Some(s), nil
		}
	}
	return mo.None[model.Subscription](), nil
}

func (r *SubscriptionRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.ID == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %s: %w", id, model.ErrSubscriptionNotFound)
}

// Len reports the number of stored subscriptions.
func (r *SubscriptionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

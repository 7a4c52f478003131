package outbound

import (
	"context"

	"github.com/samber/mo"

	"github.com/jonny/times-relay/internal/domain/model"
)

// SubscriptionRepository persists user -> channel subscriptions.
// Implementations must be safe for concurrent use.
type SubscriptionRepository interface {
	// Add stores a new subscription. It returns model.ErrDuplicateSubscription
	// when the (user, channel) pair already exists.
	Add(ctx context.Context, userID, channelID string) (model.Subscription, error)
	FindByUser(ctx context.Context, userID string) ([]model.Subscription, error)
	FindExact(ctx context.Context, userID, channelID string) (mo.Option[model.Subscription], error)
	// Remove deletes by ID and returns model.ErrSubscriptionNotFound if no row matched.
	Remove(ctx context.Context, id string) error
}
